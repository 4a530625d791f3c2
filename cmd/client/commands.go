package main

import (
	"bufio"
	"campus-chat/auth"
	"campus-chat/domain/chat"
	"fmt"
	"io"
	"strings"

	"github.com/gookit/color"
	"github.com/spf13/cobra"
)

func newRootCmd(a *app) *cobra.Command {
	var token string
	root := &cobra.Command{
		Use:           "campus-chat",
		Short:         "Direct messages between members of the campus network",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&token, "token", a.config.Token, "Session token (or set CAMPUS_CHAT_TOKEN)")

	root.AddCommand(newRegisterCmd(a))
	root.AddCommand(newLoginCmd(a))
	root.AddCommand(newSearchCmd(a, &token))
	root.AddCommand(newConversationsCmd(a, &token))
	root.AddCommand(newChatCmd(a, &token))
	return root
}

func newRegisterCmd(a *app) *cobra.Command {
	var req auth.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and print its session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := a.auth.Register(req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "Account password")
	cmd.Flags().StringVar(&req.DisplayName, "name", "", "Display name")
	cmd.Flags().StringVar(&req.Affiliation, "affiliation", "", "Department, lab or club")
	cmd.Flags().StringVar(&req.Avatar, "avatar", "", "Avatar URL")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Print a fresh session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := a.auth.Login(email, password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newSearchCmd(a *app, token *string) *cobra.Command {
	var affiliation string
	var limit int
	cmd := &cobra.Command{
		Use:   "search <terms>",
		Short: "Find people to talk to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, _, err := a.controller(*token)
			if err != nil {
				return err
			}
			defer controller.Close()

			query := strings.Join(args, " ")
			if affiliation != "" {
				query += " --affiliation " + affiliation
			}
			if limit > 0 {
				query += fmt.Sprintf(" --limit %d", limit)
			}
			profiles, err := controller.SearchIdentities(cmd.Context(), query)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(profiles) == 0 {
				fmt.Fprintln(out, color.FgYellow.Sprint("Nobody found"))
				return nil
			}
			for _, p := range profiles {
				fmt.Fprintf(out, "%s  %s  %s\n", color.FgCyan.Sprint(p.ID), p.DisplayName, p.Affiliation)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&affiliation, "affiliation", "", "Only people of this affiliation")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")
	return cmd
}

func newConversationsCmd(a *app, token *string) *cobra.Command {
	return &cobra.Command{
		Use:   "conversations",
		Short: "List conversations, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, _, err := a.controller(*token)
			if err != nil {
				return err
			}
			defer controller.Close()

			out := cmd.OutOrStdout()
			for _, c := range controller.Store().LoadConversations(cmd.Context()) {
				printConversation(out, c)
			}
			return nil
		},
	}
}

func newChatCmd(a *app, token *string) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <identity>",
		Short: "Open the conversation with someone and write to them, /quit to leave",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			controller, me, err := a.controller(*token)
			if err != nil {
				return err
			}
			defer controller.Close()

			id, err := controller.StartChatWith(ctx, chat.Identity(args[0]))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			active, _ := controller.Active()
			fmt.Fprintln(out, color.New(color.FgGreen, color.OpBold).Render("  ====== "+active.Other.DisplayName+" ======"))
			printed := printMessages(out, controller.Stream().Messages(), me, 0)

			lines := scanLines(cmd.InOrStdin())
			for {
				select {
				case <-ctx.Done():
					return nil
				case notice, ok := <-controller.Notices():
					if !ok {
						return nil
					}
					if notice.ConversationID == id {
						printed = printMessages(out, controller.Stream().Messages(), me, printed)
					}
				case line, ok := <-lines:
					if !ok || strings.TrimSpace(line) == "/quit" {
						return nil
					}
					controller.SetDraft(line)
					if err = controller.SendMessage(ctx, id, controller.Draft()); err != nil {
						fmt.Fprintln(out, color.FgRed.Sprint(err))
						continue
					}
					printed = printMessages(out, controller.Stream().Messages(), me, printed)
				}
			}
		},
	}
}

func scanLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

// printMessages prints the messages after the first `from` ones and returns how many are printed.
func printMessages(out io.Writer, messages []chat.Message, me chat.Identity, from int) int {
	for _, m := range messages[min(from, len(messages)):] {
		author := color.FgCyan.Sprint(m.SenderID)
		if m.SenderID == me {
			author = color.FgGreen.Sprint("me")
		}
		fmt.Fprintf(out, "[%s] %s: %s\n", m.CreatedAt.Local().Format("15:04"), author, m.Content)
	}
	return len(messages)
}

func printConversation(out io.Writer, c chat.Conversation) {
	name := c.Other.DisplayName
	if name == "" {
		name = string(c.Other.ID)
	}
	line := color.New(color.OpBold).Render(name)
	if c.UnreadCount > 0 {
		line += " " + color.FgYellow.Sprintf("(%d)", c.UnreadCount)
	}
	if c.LastMessagePreview != nil {
		line += "  " + *c.LastMessagePreview
	}
	fmt.Fprintf(out, "%s  %s\n", color.FgCyan.Sprint(c.Other.ID), line)
}
