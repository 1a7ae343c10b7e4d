package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"postfarm/internal/featureflags"
	"postfarm/internal/models"
	"postfarm/internal/seed"
	"postfarm/internal/service"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newStateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Print the whole application state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := a.rt.Store.State()
			return a.render(st, func(w *tabwriter.Writer) {
				current := "-"
				if c := st.CurrentClient(); c != nil {
					current = c.Name
				}
				fmt.Fprintf(w, "current client:\t%s\n", current)
				fmt.Fprintf(w, "clients:\t%d\n", len(st.Clients))
				fmt.Fprintf(w, "posts:\t%d\n", len(st.Posts))
				fmt.Fprintf(w, "comments:\t%d\n", len(st.Comments))
				fmt.Fprintf(w, "security events:\t%d\n", len(st.SecurityEvents))
				fmt.Fprintf(w, "load outcome:\t%s\n", a.rt.LoadOutcome)
			})
		},
	}
}

// clientArg resolves an optional client id, defaulting to the current client.
func (a *app) clientArg(id string) (string, error) {
	if id != "" {
		return id, nil
	}
	c := a.rt.Store.CurrentClient()
	if c == nil {
		return "", fmt.Errorf("no client selected; pass --client")
	}
	return c.ID, nil
}

// clientsResetHelp explains why client edits do not outlive the command.
const clientsResetHelp = `The client list and account health are restored from the built-in
defaults every time postfarm starts, so changes to clients and their
connected accounts last only for the current invocation. Posts, comments,
replies, security events and analytics are kept across runs.`

// noteClientsReset warns on stderr that a client change will not survive
// the next run. Stdout is left alone so json and yaml output stay parseable.
func (a *app) noteClientsReset(cmd *cobra.Command) {
	fmt.Fprintln(cmd.ErrOrStderr(), "note: client changes last only for this invocation; clients are restored from the defaults on the next run")
}

func newClientCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "client", Short: "Manage clients", Long: "Manage clients.\n\n" + clientsResetHelp}

	list := &cobra.Command{
		Use:   "list",
		Short: "List clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := a.rt.Store.State()
			return a.render(st.Clients, func(w *tabwriter.Writer) {
				fmt.Fprintln(w, "\tID\tNAME\tEMAIL\tACCOUNTS")
				for _, c := range st.Clients {
					marker := ""
					if st.CurrentClientID != nil && *st.CurrentClientID == c.ID {
						marker = "*"
					}
					connected := 0
					for _, acc := range c.ConnectedAccounts {
						if acc.IsConnected {
							connected++
						}
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\n", marker, c.ID, c.Name, c.Email, connected, len(c.ConnectedAccounts))
				}
			})
		},
	}

	switchCmd := &cobra.Command{
		Use:   "switch <id>",
		Short: "Select the current client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.rt.Store.SwitchCurrentClient(a.ctx, args[0])
			if err != nil {
				return err
			}
			c := st.CurrentClient()
			return a.render(c, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "current client is now %s (%s)\n", c.Name, c.ID)
			})
		},
	}

	var in models.Client
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a client (for this invocation only)",
		Long:  "Add a client.\n\n" + clientsResetHelp,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(in.Name) == "" {
				return models.NewValidationError("--name is required")
			}
			client := in
			if client.ID == "" {
				client.ID = uuid.NewString()
			}
			if client.Logo == "" {
				client.Logo = "https://api.dicebear.com/7.x/initials/svg?seed=" + client.Name
			}
			client.ConnectedAccounts = []models.ConnectedAccount{}
			a.rt.Store.AddClient(a.ctx, client)
			a.noteClientsReset(cmd)
			return a.render(client, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "added client %s (%s)\n", client.Name, client.ID)
			})
		},
	}
	add.Flags().StringVar(&in.ID, "id", "", "Client id (generated when empty)")
	add.Flags().StringVar(&in.Name, "name", "", "Client name")
	add.Flags().StringVar(&in.Email, "email", "", "Contact email")
	add.Flags().StringVar(&in.Phone, "phone", "", "Contact phone")
	add.Flags().StringVar(&in.Description, "description", "", "Free-form description")
	add.Flags().StringVar(&in.Logo, "logo", "", "Logo URL")

	var upd struct{ name, email, phone, description string }
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a client's details (for this invocation only)",
		Long:  "Change a client's details.\n\n" + clientsResetHelp,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := a.rt.Store.State()
			existing := st.FindClient(args[0])
			if existing == nil {
				return models.NewNotFoundError("Client", args[0])
			}
			c := existing.Clone()
			if cmd.Flags().Changed("name") {
				c.Name = upd.name
			}
			if cmd.Flags().Changed("email") {
				c.Email = upd.email
			}
			if cmd.Flags().Changed("phone") {
				c.Phone = upd.phone
			}
			if cmd.Flags().Changed("description") {
				c.Description = upd.description
			}
			a.rt.Store.UpdateClient(a.ctx, c)
			a.noteClientsReset(cmd)
			return a.render(c, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "updated client %s\n", c.ID)
			})
		},
	}
	update.Flags().StringVar(&upd.name, "name", "", "Client name")
	update.Flags().StringVar(&upd.email, "email", "", "Contact email")
	update.Flags().StringVar(&upd.phone, "phone", "", "Contact phone")
	update.Flags().StringVar(&upd.description, "description", "", "Free-form description")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a client (for this invocation only)",
		Long:  "Delete a client.\n\n" + clientsResetHelp,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := a.rt.Store.DeleteClient(a.ctx, args[0])
			a.noteClientsReset(cmd)
			return a.render(st.Clients, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "%d clients remain\n", len(st.Clients))
			})
		},
	}

	cmd.AddCommand(list, switchCmd, add, update, del)
	return cmd
}

// dateLayouts accepted on the command line.
var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"}

func parseWhen(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, models.NewValidationError(fmt.Sprintf("cannot parse date %q", s))
}

func parsePlatforms(raw []string) ([]models.Platform, error) {
	out := make([]models.Platform, 0, len(raw))
	for _, r := range raw {
		p := models.Platform(strings.ToLower(strings.TrimSpace(r)))
		if !p.Valid() {
			return nil, models.NewValidationError(fmt.Sprintf("unsupported platform %q", r))
		}
		out = append(out, p)
	}
	return out, nil
}

func newPostCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "post", Short: "Manage scheduled posts"}

	var listClient, listDay string
	list := &cobra.Command{
		Use:   "list",
		Short: "List posts, optionally for one calendar day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := a.rt.Store.State()
			posts := st.Posts
			if listDay != "" {
				day, err := parseWhen(listDay)
				if err != nil {
					return err
				}
				posts = service.PostsForDay(st, listClient, day)
			} else if listClient != "" {
				posts = []models.Post{}
				for _, p := range st.Posts {
					if p.ClientID == listClient {
						posts = append(posts, p)
					}
				}
			}
			return a.render(posts, func(w *tabwriter.Writer) {
				fmt.Fprintln(w, "ID\tCLIENT\tSTATUS\tSCHEDULED\tPLATFORMS\tCONTENT")
				for _, p := range posts {
					platforms := make([]string, len(p.Platforms))
					for i, pl := range p.Platforms {
						platforms[i] = string(pl)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.ClientID, p.Status,
						p.ScheduledDate.Format("2006-01-02 15:04"), strings.Join(platforms, ","), p.Content)
				}
			})
		},
	}
	list.Flags().StringVar(&listClient, "client", "", "Only posts for this client")
	list.Flags().StringVar(&listDay, "day", "", "Only posts scheduled on this day (YYYY-MM-DD)")

	var (
		addID, addClient, addContent, addImage, addAt string
		addPlatforms                                  []string
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Schedule a post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clientID, err := a.clientArg(addClient)
			if err != nil {
				return err
			}
			if strings.TrimSpace(addContent) == "" {
				return models.NewValidationError("--content is required")
			}
			platforms, err := parsePlatforms(addPlatforms)
			if err != nil {
				return err
			}
			if len(platforms) == 0 {
				return models.NewValidationError("at least one --platform is required")
			}
			when, err := parseWhen(addAt)
			if err != nil {
				return err
			}
			post := models.Post{
				ID:            addID,
				ClientID:      clientID,
				Platforms:     platforms,
				Content:       addContent,
				ImageURL:      addImage,
				ScheduledDate: when,
				Status:        models.PostStatusScheduled,
				CreatedAt:     time.Now().UTC(),
			}
			if post.ID == "" {
				post.ID = uuid.NewString()
			}
			a.rt.Store.AddPost(a.ctx, post)
			return a.render(post, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "scheduled post %s for %s\n", post.ID, when.Format(time.RFC3339))
			})
		},
	}
	add.Flags().StringVar(&addID, "id", "", "Post id (generated when empty)")
	add.Flags().StringVar(&addClient, "client", "", "Client id (defaults to the current client)")
	add.Flags().StringVar(&addContent, "content", "", "Post text")
	add.Flags().StringVar(&addImage, "image", "", "Image URL")
	add.Flags().StringVar(&addAt, "at", "", "Scheduled time (RFC3339, YYYY-MM-DDTHH:MM or YYYY-MM-DD)")
	add.Flags().StringSliceVar(&addPlatforms, "platform", nil, "Target platforms (facebook,instagram,tiktok)")
	_ = add.MarkFlagRequired("at")

	setStatus := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Change a post's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := args[1]
			switch models.PostStatus(status) {
			case models.PostStatusScheduled, models.PostStatusPublished, models.PostStatusDraft, models.PostStatusFailed:
			default:
				return models.NewValidationError(fmt.Sprintf("unsupported status %q", status))
			}
			var target *models.Post
			st := a.rt.Store.State()
			for i := range st.Posts {
				if st.Posts[i].ID == args[0] {
					target = &st.Posts[i]
				}
			}
			if target == nil {
				return models.NewNotFoundError("Post", args[0])
			}
			target.Status = models.PostStatus(status)
			a.rt.Store.UpdatePost(a.ctx, *target)
			return a.render(target, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "post %s is now %s\n", target.ID, target.Status)
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := a.rt.Store.DeletePost(a.ctx, args[0])
			return a.render(st.Posts, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "%d posts remain\n", len(st.Posts))
			})
		},
	}

	cmd.AddCommand(list, add, setStatus, del)
	return cmd
}

func newInboxCmd(a *app) *cobra.Command {
	var (
		f        service.InboxFilter
		platform string
		all      bool
	)
	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "List comments for the current client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all {
				id, err := a.clientArg(f.ClientID)
				if err != nil {
					return err
				}
				f.ClientID = id
			}
			if platform != "" {
				ps, err := parsePlatforms([]string{platform})
				if err != nil {
					return err
				}
				f.Platform = ps[0]
			}
			switch f.Tab {
			case service.InboxAll, service.InboxUnread, service.InboxReplied:
			default:
				return models.NewValidationError(fmt.Sprintf("unsupported tab %q", f.Tab))
			}
			comments := service.FilterInbox(a.rt.Store.State(), f)
			return a.render(comments, func(w *tabwriter.Writer) {
				fmt.Fprintln(w, "ID\tPLATFORM\tAUTHOR\tREPLIES\tCONTENT")
				for _, c := range comments {
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", c.ID, c.Platform, c.Author, len(c.Replies), c.Content)
				}
			})
		},
	}
	cmd.Flags().StringVar(&f.ClientID, "client", "", "Client id (defaults to the current client)")
	cmd.Flags().BoolVar(&all, "all-clients", false, "Show comments for every client")
	cmd.Flags().StringVar(&platform, "platform", "", "Only this platform")
	cmd.Flags().StringVarP(&f.Query, "query", "q", "", "Search author and content")
	cmd.Flags().StringVar(&f.Tab, "tab", service.InboxAll, "all|unread|replied")
	return cmd
}

func newReplyCmd(a *app) *cobra.Command {
	var isAI bool
	cmd := &cobra.Command{
		Use:   "reply <commentID> <text>",
		Short: "Reply to a comment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if isAI {
				if clientID, ok := service.ClientForComment(a.rt.Store.State(), args[0]); ok &&
					!a.rt.Flags.EnabledOr(featureflags.AIReplies, clientID, true) {
					return models.NewValidationError(fmt.Sprintf("AI replies are disabled for client %s", clientID))
				}
			}
			st := a.rt.Store.AddReplyToComment(a.ctx, args[0], service.ReplyInput{Content: args[1], IsAI: isAI})
			for _, c := range st.Comments {
				if c.ID == args[0] {
					return a.render(c, func(w *tabwriter.Writer) {
						fmt.Fprintf(w, "comment %s now has %d replies\n", c.ID, len(c.Replies))
					})
				}
			}
			return models.NewNotFoundError("Comment", args[0])
		},
	}
	cmd.Flags().BoolVar(&isAI, "ai", false, "Mark the reply as AI-generated")
	return cmd
}

func newConnectCmd(a *app) *cobra.Command {
	var clientID, username string
	cmd := &cobra.Command{
		Use:   "connect <platform>",
		Short: "Connect a platform account for a client (for this invocation only)",
		Long:  "Connect a platform account for a client.\n\n" + clientsResetHelp,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.clientArg(clientID)
			if err != nil {
				return err
			}
			st, err := a.rt.Store.ConnectAccount(a.ctx, id, models.Platform(strings.ToLower(args[0])), username)
			if err != nil {
				return err
			}
			a.noteClientsReset(cmd)
			c := st.FindClient(id)
			if c == nil {
				return models.NewNotFoundError("Client", id)
			}
			return a.render(c.ConnectedAccounts, func(w *tabwriter.Writer) {
				printAccounts(w, c)
			})
		},
	}
	cmd.Flags().StringVar(&clientID, "client", "", "Client id (defaults to the current client)")
	cmd.Flags().StringVar(&username, "username", "", "Account username")
	return cmd
}

func newDisconnectCmd(a *app) *cobra.Command {
	var clientID string
	cmd := &cobra.Command{
		Use:   "disconnect <accountID>",
		Short: "Disconnect a platform account (for this invocation only)",
		Long:  "Disconnect a platform account.\n\n" + clientsResetHelp,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.clientArg(clientID)
			if err != nil {
				return err
			}
			st := a.rt.Store.DisconnectAccount(a.ctx, id, args[0])
			a.noteClientsReset(cmd)
			c := st.FindClient(id)
			if c == nil {
				return models.NewNotFoundError("Client", id)
			}
			return a.render(c.ConnectedAccounts, func(w *tabwriter.Writer) {
				printAccounts(w, c)
			})
		},
	}
	cmd.Flags().StringVar(&clientID, "client", "", "Client id (defaults to the current client)")
	return cmd
}

func printAccounts(w *tabwriter.Writer, c *models.Client) {
	fmt.Fprintln(w, "ID\tPLATFORM\tUSERNAME\tCONNECTED")
	for _, acc := range c.ConnectedAccounts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", acc.ID, acc.Platform, acc.Username, acc.IsConnected)
	}
}

func newAnalyticsCmd(a *app) *cobra.Command {
	show := func(an models.Analytics) error {
		return a.render(an, func(w *tabwriter.Writer) {
			fmt.Fprintln(w, "\tVIEWS\tLIKES\tCOMMENTS\tSHARES")
			fmt.Fprintf(w, "total\t%d\t%d\t%d\t%d\n", an.TotalViews, an.TotalLikes, an.TotalComments, an.TotalShares)
			for _, p := range models.Platforms {
				m := an.ByPlatform.For(p)
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", p, m.Views, m.Likes, m.Comments, m.Shares)
			}
		})
	}

	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show engagement totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(a.rt.Store.State().Analytics)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Refresh engagement totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(a.rt.Store.RefreshAnalytics(a.ctx).Analytics)
		},
	})
	return cmd
}

func newSecurityCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "security [clientID]",
		Short: "Show account health and security events for a client",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var explicit string
			if len(args) == 1 {
				explicit = args[0]
			}
			id, err := a.clientArg(explicit)
			if err != nil {
				return err
			}
			st := a.rt.Store.State()
			report := struct {
				Health *models.ClientHealth    `json:"health"`
				Events []models.SecurityEvent `json:"events"`
			}{
				Health: service.HealthFor(st, id),
				Events: service.SecurityEventsForClient(st, id),
			}
			return a.render(report, func(w *tabwriter.Writer) {
				if h := report.Health; h != nil {
					fmt.Fprintf(w, "score:\t%d (%s)\n", h.OverallScore, h.Status)
					fmt.Fprintf(w, "last scan:\t%s\n", h.LastScan.Format(time.RFC3339))
					fmt.Fprintf(w, "recent issues:\t%s\n", h.RecentIssues)
				}
				fmt.Fprintln(w, "SEVERITY\tPLATFORM\tWHEN\tTITLE")
				for _, e := range report.Events {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Severity, e.Platform, e.Timestamp.Format("2006-01-02 15:04"), e.Title)
				}
			})
		},
	}
}

func newFlagsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "flags [clientID]",
		Short: "Show feature flags as evaluated for a client",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var explicit string
			if len(args) == 1 {
				explicit = args[0]
			}
			id, err := a.clientArg(explicit)
			if err != nil {
				return err
			}
			flags := a.rt.Flags
			snapshot := flags.Snapshot(id)
			raw := flags.Raw()
			return a.render(snapshot, func(w *tabwriter.Writer) {
				fmt.Fprintln(w, "FLAG\tVALUE\tENABLED")
				for _, name := range flags.Names() {
					fmt.Fprintf(w, "%s\t%s\t%t\n", name, raw[name], snapshot[name])
				}
			})
		},
	}
}

func newLangCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lang",
		Short: "Show the interface language",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lang := a.rt.Preferences.Language(a.ctx)
			return a.render(map[string]string{"language": string(lang)}, func(w *tabwriter.Writer) {
				fmt.Fprintln(w, lang)
			})
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <en|ku|ar>",
		Short: "Change the interface language",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang := models.Language(strings.ToLower(args[0]))
			if err := a.rt.Preferences.SetLanguage(a.ctx, lang); err != nil {
				return err
			}
			return a.render(map[string]string{"language": string(lang)}, func(w *tabwriter.Writer) {
				fmt.Fprintln(w, lang)
			})
		},
	})
	return cmd
}

func newSeedCmd(a *app) *cobra.Command {
	var (
		fake     int
		fakeSeed int64
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Reset the state to factory defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state := seed.Generate()
			if fake > 0 {
				state = seed.NewFactory(seed.Options{Seed: fakeSeed}).Populate(state, fake)
			}
			st := a.rt.Store.Replace(a.ctx, state)
			return a.render(st, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "reset to factory defaults: %d clients, %d posts, %d comments\n",
					len(st.Clients), len(st.Posts), len(st.Comments))
			})
		},
	}
	cmd.Flags().IntVar(&fake, "fake", 0, "Add this many generated posts (with one comment each)")
	cmd.Flags().Int64Var(&fakeSeed, "fake-seed", 0, "Seed for generated data (0 picks one)")
	return cmd
}
