package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/koji0214/summaryoutube/internal/api"
	"github.com/koji0214/summaryoutube/internal/format"
	"github.com/koji0214/summaryoutube/internal/model"
	"github.com/koji0214/summaryoutube/internal/poll"
	"github.com/koji0214/summaryoutube/internal/session"
	"github.com/koji0214/summaryoutube/internal/statusutil"

	"github.com/spf13/cobra"
)

func newVideosCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "videos",
		Aliases: []string{"video", "v"},
		Short:   "Video bookmark commands",
	}
	cmd.AddCommand(newVideosListCmd(app))
	cmd.AddCommand(newVideosShowCmd(app))
	cmd.AddCommand(newVideosAddCmd(app))
	cmd.AddCommand(newVideosEditCmd(app))
	cmd.AddCommand(newVideosRmCmd(app))
	cmd.AddCommand(newVideosTranscriptCmd(app))
	return cmd
}

func newVideosListCmd(app *App) *cobra.Command {
	var (
		title   string
		tagList []string
		sortBy  string
		order   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List videos (search by title, filter by tags, sort)",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := statusutil.NormalizeSortKey(sortBy)
			if err != nil {
				return writeErr(cmd, err)
			}
			ord, err := statusutil.NormalizeSortOrder(order)
			if err != nil {
				return writeErr(cmd, err)
			}
			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			sess := app.session(c)
			if err := sess.Search(cmd.Context(), title, tagList, key, ord); err != nil {
				return writeErr(cmd, err)
			}
			videos := sess.Videos()
			q := sess.Query()
			return writeOut(cmd, app, format.Envelope{
				Data: videos,
				Meta: map[string]any{"count": len(videos), "query": q.String()},
				Text: func(w io.Writer) error { return writeVideoTable(w, videos) },
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Only videos whose title contains this text")
	cmd.Flags().StringArrayVar(&tagList, "tag", nil, "Only videos carrying this tag (repeatable; all must match)")
	cmd.Flags().StringVar(&sortBy, "sort", string(model.DefaultSortKey), "Sort key (id|title|channel_name|created_at|updated_at)")
	cmd.Flags().StringVar(&order, "order", string(model.DefaultSortOrder), "Sort order (asc|desc)")
	return cmd
}

func newVideosShowCmd(app *App) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "show <video-id>",
		Short: "Show a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseVideoID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			var v model.Video
			if watch {
				v, err = app.watch(cmd, c, id)
			} else {
				v, err = c.GetVideo(cmd.Context(), id)
			}
			if err != nil {
				return writeErr(cmd, videoErr(id, err))
			}
			return writeOut(cmd, app, videoEnvelope(v))
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Follow the transcription job until it completes or fails")
	return cmd
}

func newVideosAddCmd(app *App) *cobra.Command {
	var (
		tagList    []string
		memo       string
		transcribe bool
		watch      bool
	)

	cmd := &cobra.Command{
		Use:   "add <youtube-url>",
		Short: "Bookmark a YouTube video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			sess := app.session(c)
			d := sess.NewDraft()
			d.URL = args[0]
			d.Memo = memo
			if transcribe {
				d.TranscriptionOption = model.TranscriptionStandard
			}
			for _, t := range tagList {
				if err := d.Tags.AddNew(t); err != nil {
					return writeErr(cmd, fmt.Errorf("tag %q: %w", t, err))
				}
			}

			v, err := sess.Create(cmd.Context(), d)
			if err := mutationErr(cmd, err); err != nil {
				return writeErr(cmd, err)
			}
			if watch && v.Status.InProgress() {
				v, err = app.watch(cmd, c, v.ID)
				if err != nil {
					return writeErr(cmd, videoErr(v.ID, err))
				}
			}
			return writeOut(cmd, app, videoEnvelope(v))
		},
	}

	cmd.Flags().StringArrayVar(&tagList, "tag", nil, "Tag (repeatable)")
	cmd.Flags().StringVar(&memo, "memo", "", "Memo text")
	cmd.Flags().BoolVar(&transcribe, "transcribe", false, "Request a transcription job")
	cmd.Flags().BoolVar(&watch, "watch", false, "With --transcribe: wait for the job to finish")
	return cmd
}

func newVideosEditCmd(app *App) *cobra.Command {
	var (
		url        string
		memo       string
		tagList    []string
		addTags    []string
		removeTags []string
	)

	cmd := &cobra.Command{
		Use:   "edit <video-id>",
		Short: "Edit a video's URL, memo or tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseVideoID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			current, err := c.GetVideo(cmd.Context(), id)
			if err != nil {
				return writeErr(cmd, videoErr(id, err))
			}

			sess := app.session(c)
			d := sess.EditDraft(current)
			if cmd.Flags().Changed("url") {
				d.URL = url
			}
			if cmd.Flags().Changed("memo") {
				d.Memo = memo
			}
			if cmd.Flags().Changed("tag") {
				d.Tags.Clear()
				addTags = append(append([]string(nil), tagList...), addTags...)
			}
			for _, t := range addTags {
				if err := d.Tags.AddNew(t); err != nil {
					return writeErr(cmd, fmt.Errorf("tag %q: %w", t, err))
				}
			}
			for _, t := range removeTags {
				d.Tags.Remove(strings.TrimSpace(t))
			}

			v, err := sess.Update(cmd.Context(), id, d)
			if err := mutationErr(cmd, err); err != nil {
				return writeErr(cmd, videoErr(id, err))
			}
			return writeOut(cmd, app, videoEnvelope(v))
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "New YouTube URL")
	cmd.Flags().StringVar(&memo, "memo", "", "New memo")
	cmd.Flags().StringArrayVar(&tagList, "tag", nil, "Replace all tags (repeatable)")
	cmd.Flags().StringArrayVar(&addTags, "add-tag", nil, "Add a tag (repeatable)")
	cmd.Flags().StringArrayVar(&removeTags, "remove-tag", nil, "Remove a tag (repeatable)")
	return cmd
}

func newVideosRmCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm <video-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a video",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseVideoID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := mutationErr(cmd, app.session(c).Delete(cmd.Context(), id)); err != nil {
				return writeErr(cmd, videoErr(id, err))
			}
			return writeOut(cmd, app, format.Envelope{
				Data: map[string]any{"id": id, "deleted": true},
				Text: func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "deleted video %d\n", id)
					return err
				},
			})
		},
	}
	return cmd
}

func newVideosTranscriptCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcript <video-id>",
		Short: "Print a video's transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseVideoID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			text, err := c.GetTranscript(cmd.Context(), id)
			if err != nil {
				return writeErr(cmd, videoErr(id, err))
			}
			return writeOut(cmd, app, format.Envelope{
				Data: map[string]any{"id": id, "transcript": text},
				Text: func(w io.Writer) error {
					if strings.TrimSpace(text) == "" {
						text = "No transcript available."
					}
					_, err := fmt.Fprintln(w, text)
					return err
				},
			})
		},
	}
	return cmd
}

// mutationErr lets a mutation whose follow-up reload failed count as a success; the
// reload problem is reported on stderr.
func mutationErr(cmd *cobra.Command, err error) error {
	var rerr *session.ReloadError
	if errors.As(err, &rerr) {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: "+rerr.Error())
		return nil
	}
	return err
}

// watch follows video id until its job finishes, printing status changes to stderr.
func (app *App) watch(cmd *cobra.Command, c *api.Client, id int64) (model.Video, error) {
	var last model.Status
	w := poll.Watcher{Interval: app.cfg.PollInterval, Fetcher: c.NoRetry(), Logger: app.log}
	h := w.Open(cmd.Context(), id, func(v model.Video) {
		if v.Status != last {
			last = v.Status
			fmt.Fprintf(cmd.ErrOrStderr(), "video %d: %s\n", id, v.Status)
		}
	})
	defer h.Stop()
	if err := h.Wait(cmd.Context()); err != nil {
		return h.Video(), err
	}
	return h.Video(), nil
}

func videoEnvelope(v model.Video) format.Envelope {
	return format.Envelope{
		Data: v,
		Text: func(w io.Writer) error {
			_, err := io.WriteString(w, videoFields(v))
			return err
		},
	}
}

func videoFields(v model.Video) string {
	pairs := [][2]string{
		{"id", strconv.FormatInt(v.ID, 10)},
		{"title", v.Title},
		{"channel", v.ChannelName},
		{"url", v.URL},
		{"tags", strings.Join(v.Tags, ", ")},
		{"status", string(v.Status)},
	}
	if v.CreatedAt != nil {
		pairs = append(pairs, [2]string{"created", v.CreatedAt.Format(time.RFC3339)})
	}
	if v.UpdatedAt != nil {
		pairs = append(pairs, [2]string{"updated", v.UpdatedAt.Format(time.RFC3339)})
	}
	out := format.Fields(pairs)
	if strings.TrimSpace(v.Memo) != "" {
		out += "\n" + strings.TrimRight(v.Memo, "\n") + "\n"
	}
	return out
}

func writeVideoTable(w io.Writer, videos []model.Video) error {
	if len(videos) == 0 {
		_, err := fmt.Fprintln(w, "No videos.")
		return err
	}
	rows := make([][]string, 0, len(videos))
	for _, v := range videos {
		status := string(v.Status)
		if b := statusutil.Badge(v.Status); b != "" {
			status = b
		}
		rows = append(rows, []string{
			strconv.FormatInt(v.ID, 10),
			v.Title,
			v.ChannelName,
			strings.Join(v.Tags, ", "),
			status,
		})
	}
	_, err := fmt.Fprintln(w, format.Table([]string{"ID", "TITLE", "CHANNEL", "TAGS", "STATUS"}, rows))
	return err
}
