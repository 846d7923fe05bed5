package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/spec-kit/support-triage/internal/auth"
	"github.com/spec-kit/support-triage/internal/domain"
	"github.com/spec-kit/support-triage/internal/render"
	"github.com/spec-kit/support-triage/internal/repository"
	"github.com/spec-kit/support-triage/internal/service"
)

// RootCmd assembles the triagectl command tree.
func RootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:     "triagectl",
		Short:   "Operate the support triage service from a terminal",
		Version: version,
		Long: `triagectl drives the same triage, ticket and escalation services as the
HTTP server, printing the chat messages a requester would see.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(TriageCmd())
	root.AddCommand(EscalateCmd())
	root.AddCommand(StatusCmd())
	root.AddCommand(TicketsCmd())
	root.AddCommand(TokenCmd())
	root.AddCommand(HashKeyCmd())

	return root
}

// TriageCmd returns the triage command
func TriageCmd() *cobra.Command {
	var user, name, channel string

	cmd := &cobra.Command{
		Use:   "triage <issue text>",
		Short: "Classify an issue and either offer guidance or open a ticket",
		Long: `Submit one issue report on behalf of a requester.

Examples:
  triagectl triage --user u-1 "water leaking from the door"
  triagectl triage --user u-1 --name alice --channel support "drum won't spin"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if render.IsGreeting(text) {
				printMessage(cmd.OutOrStdout(), render.Help())
				return nil
			}

			ctx := cmd.Context()
			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := s.components.Triage.Handle(ctx, domain.IssueReport{
				RawText:         text,
				RequesterID:     user,
				RequesterName:   name,
				ConversationRef: channel,
			})
			if err != nil {
				return err
			}
			printMessage(cmd.OutOrStdout(), render.Result(res))
			return resultError(res)
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Requester id")
	cmd.Flags().StringVar(&name, "name", "", "Requester display name")
	cmd.Flags().StringVar(&channel, "channel", "", "Conversation the issue came from")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

// EscalateCmd returns the escalate command
func EscalateCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "escalate <offer-id>",
		Short: "Turn a pending escalation offer into a ticket",
		Long: `Consume an escalation offer as its owner. Offers registered in the
in-memory registry do not outlive the process that created them, so use
REGISTRY_BACKEND=redis when escalating from the command line.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := s.components.Triage.Escalate(ctx, args[0], user)
			if err != nil {
				printMessage(cmd.OutOrStdout(), render.Rejected(describeError(err)))
				return err
			}
			printMessage(cmd.OutOrStdout(), render.Result(res))
			return resultError(res)
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Requester id that owns the offer")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

// StatusCmd returns the status command
func StatusCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "status [ticket-id]",
		Short: "Show a ticket's status, defaulting to the requester's latest",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && user == "" {
				return errors.New("either a ticket id or --user is required")
			}

			ctx := cmd.Context()
			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			ticketID, err := resolveTicketID(ctx, s.components.Triage, args, user)
			if err != nil {
				return err
			}
			if ticketID == "" {
				printMessage(cmd.OutOrStdout(), render.NoLatestTicket())
				return nil
			}

			res, err := s.components.Triage.StatusOf(ctx, ticketID)
			if err != nil {
				return err
			}
			printMessage(cmd.OutOrStdout(), render.Status(res))
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Requester whose latest ticket to show")

	return cmd
}

func resolveTicketID(ctx context.Context, triage *service.TriageService, args []string, user string) (string, error) {
	if len(args) == 1 {
		return strings.TrimSpace(args[0]), nil
	}
	ticketID, ok, err := triage.LatestTicketID(ctx, user)
	if err != nil || !ok {
		return "", err
	}
	return ticketID, nil
}

// TicketsCmd returns the tickets command
func TicketsCmd() *cobra.Command {
	var (
		user  string
		limit int
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "tickets",
		Short: "List a requester's most recent tickets",
		Long: `List a requester's tickets newest first.

With --all every indexed ticket is printed one per line instead of the
chat-sized summary.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if all {
				return printAllTickets(ctx, cmd.OutOrStdout(), s.components.Index, user)
			}

			page, err := s.components.Triage.TicketsOf(ctx, user, limit)
			if err != nil {
				return err
			}
			printMessage(cmd.OutOrStdout(), render.TicketList(page))
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Requester id")
	cmd.Flags().IntVar(&limit, "limit", service.DefaultTicketLimit, "Maximum tickets to show")
	cmd.Flags().BoolVar(&all, "all", false, "Print every indexed ticket")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

// TokenCmd returns the token command
func TokenCmd() *cobra.Command {
	var (
		subject string
		kind    string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for a chat bridge or operator",
		Long: `Sign a JWT with AUTH_JWT_SECRET.

Examples:
  triagectl token --subject discord-bridge
  triagectl token --subject ops --kind operator`,
		RunE: func(cmd *cobra.Command, args []string) error {
			principal := auth.PrincipalKind(kind)
			if !principal.Valid() {
				return fmt.Errorf("unknown kind %q (bridge|operator)", kind)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
			token, expiresAt, err := tokens.GenerateToken(subject, principal)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, token)
			fmt.Fprintln(out, color.New(color.Faint).Sprintf("expires %s", expiresAt.Format("2006-01-02 15:04 MST")))
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Subject recorded in the token")
	cmd.Flags().StringVar(&kind, "kind", string(auth.KindBridge), "Principal kind: bridge or operator")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}

func printAllTickets(ctx context.Context, w io.Writer, index repository.TicketIndex, user string) error {
	idStyle := color.New(color.FgHiBlue)
	count := 0
	for t, err := range repository.Walk(ctx, index, user, 0) {
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s  %-8s %-8s %s  %s\n",
			idStyle.Sprint(t.ID), t.Status, t.Severity, t.CreatedAt.Format("2006-01-02 15:04"), render.Preview(t.Description))
		count++
	}
	fmt.Fprintln(w, color.New(color.Faint).Sprintf("%d ticket(s)", count))
	return nil
}

// HashKeyCmd returns the hash-key command
func HashKeyCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-key <api-key>",
		Short: "Hash a bridge API key for AUTH_API_KEY_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hashed, err := auth.HashAPIKey(args[0], cost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hashed)
			return nil
		},
	}

	cmd.Flags().IntVar(&cost, "cost", 0, "bcrypt cost (0 uses the library default)")

	return cmd
}

// resultError makes a failed ticket creation exit non-zero after its message is printed.
func resultError(res *service.TriageResult) error {
	if res.Kind == service.ResultTicketCreationFailed {
		return errors.New("ticket creation failed")
	}
	return nil
}
