// Command velym-chat is a terminal client for the Velym health assistant.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"velym/backend/internal/chatview"
	"velym/backend/internal/client"
	"velym/backend/internal/session"
	"velym/backend/internal/speech"
)

type options struct {
	URL          string
	Email        string
	Password     string
	Token        string
	Conversation string
	Voice        string
}

func loadOptions(args []string) (options, error) {
	fs := pflag.NewFlagSet("velym-chat", pflag.ContinueOnError)
	fs.String("url", "http://localhost:8080", "server base URL")
	fs.String("email", "", "account email")
	fs.String("password", "", "account password")
	fs.String("token", "", "existing session token")
	fs.String("conversation", "", "conversation to open; empty starts a new one")
	fs.String("voice", speech.DefaultCommand, "speech synthesiser command")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	v := viper.New()
	v.SetEnvPrefix("VELYM")
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return options{}, err
	}
	return options{
		URL:          v.GetString("url"),
		Email:        v.GetString("email"),
		Password:     v.GetString("password"),
		Token:        v.GetString("token"),
		Conversation: v.GetString("conversation"),
		Voice:        v.GetString("voice"),
	}, nil
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	opts, err := loadOptions(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "velym-chat:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, in io.Reader, out io.Writer) error {
	c := client.New(opts.URL, client.WithToken(opts.Token))
	if opts.Token == "" && opts.Email != "" {
		if _, err := c.SignIn(ctx, opts.Email, opts.Password); err != nil {
			return fmt.Errorf("sign in: %w", err)
		}
	}

	gate := session.NewGate()
	sig := c.Session(ctx)
	if _, err := sig.Wait(ctx); err != nil {
		return err
	}
	if gate.Evaluate(sig) == session.Redirect {
		return fmt.Errorf("not signed in; sign in at %s%s or pass --email and --password", opts.URL, gate.Target())
	}

	view, err := chatview.Open(ctx, c, c, opts.Conversation)
	if err != nil {
		return err
	}
	defer func() { _ = view.Close() }()

	var player *speech.Player
	if engine, err := speech.NewCommandEngine(opts.Voice); err == nil {
		player = speech.NewPlayer(engine)
		defer player.Stop()
	}

	fmt.Fprintf(out, "Conversation %s. Type a message, /speak N to read reply N aloud, /quit to leave.\n", view.ConversationID())
	pr := &printer{out: out}
	pr.render(view)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-view.Updates():
			if view.Phase() == chatview.Closed {
				return nil
			}
			pr.render(view)
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := handleLine(ctx, out, view, player, line)
			if err != nil {
				fmt.Fprintln(out, "!", err)
			}
			if quit {
				return nil
			}
			pr.render(view)
		}
	}
}

func handleLine(ctx context.Context, out io.Writer, view *chatview.View, player *speech.Player, line string) (bool, error) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return false, nil
	case line == "/quit":
		return true, nil
	case strings.HasPrefix(line, "/speak"):
		if player == nil {
			return false, errors.New("no speech synthesiser available")
		}
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "/speak")))
		msgs := view.Messages()
		if err != nil || n < 1 || n > len(msgs) {
			return false, fmt.Errorf("usage: /speak N (1-%d)", len(msgs))
		}
		m := msgs[n-1]
		state, err := player.Toggle(ctx, m.ID, m.Content)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(out, "[%d %s]\n", n, state)
		return false, nil
	}

	view.SetComposer(line)
	if err := view.Send(ctx); err != nil {
		return false, err
	}
	return false, nil
}

type printer struct {
	out     io.Writer
	printed int
	notice  string
}

// render prints confirmed entries not yet shown and a notice when it
// changes. Pending entries are printed once the server acknowledges them.
func (p *printer) render(view *chatview.View) {
	msgs := view.Messages()
	for i := p.printed; i < len(msgs); i++ {
		m := msgs[i]
		if m.Pending {
			break
		}
		who := "velym"
		if m.IsUser {
			who = "you"
		}
		fmt.Fprintf(p.out, "%3d %-5s %s\n", i+1, who, m.Content)
		p.printed = i + 1
	}
	if notice := view.Notice(); notice != p.notice {
		p.notice = notice
		if notice != "" {
			fmt.Fprintln(p.out, "!", notice)
		}
	}
}
