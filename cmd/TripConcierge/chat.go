package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/BTreeMap/TripConcierge/internal/cards"
	"github.com/BTreeMap/TripConcierge/internal/flow"
	"github.com/BTreeMap/TripConcierge/internal/itinerary"
	"github.com/BTreeMap/TripConcierge/internal/messaging"
	"github.com/BTreeMap/TripConcierge/internal/models"
	"github.com/BTreeMap/TripConcierge/internal/offers"
)

const chatHelp = `Type answers or pick one of the suggested replies. Commands:
  /select <offer id>   add a presented flight to your plan
  /hotel <hotel id>    choose a hotel for the stay
  /fun <id>            add or remove an entertainment option
  /budget <amount>     set your total budget and check it
  /plan                show the plan
  /ics <file>          write the itinerary as an iCalendar file
  /reset               start over
  /quit                leave`

func newChatCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Plan a trip interactively in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), loadConfig(v), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// runChat drives one session from the lines read from in.
func runChat(ctx context.Context, cfg Config, in io.Reader, out io.Writer) error {
	repo, err := openCourses(ctx, cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	llm, err := newLLM(cfg)
	if err != nil {
		return fmt.Errorf("failed to create language model client: %w", err)
	}
	resolver, err := newResolver(cfg, llm)
	if err != nil {
		return fmt.Errorf("failed to create airport resolver: %w", err)
	}
	c := defaultCourse(ctx, repo, cfg.CourseID)
	sess, err := flow.NewSession(uuid.NewString(), sessionOptions(cfg, resolver, llm, c)...)
	if err != nil {
		return err
	}
	sess.Start()

	fmt.Fprintln(out, messaging.FormatReplies(sess.Messages()))
	fmt.Fprintln(out, "(type /help for commands)")

	t := &terminal{sess: sess, out: out, builder: itinerary.NewBuilder()}
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if t.command(line) {
				return nil
			}
			continue
		}
		msgs, err := sess.HandleInput(ctx, line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, messaging.FormatReplies(msgs))
	}
	fmt.Fprintln(out)
	return scanner.Err()
}

// terminal executes slash commands against a session.
type terminal struct {
	sess    *flow.Session
	out     io.Writer
	builder *itinerary.Builder
}

func (t *terminal) course() *models.Course {
	if c, ok := t.sess.Course(); ok {
		return &c
	}
	return nil
}

// command runs line and reports whether the chat should end.
func (t *terminal) command(line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(name) {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(t.out, chatHelp)
	case "/reset":
		t.sess.Reset()
		fmt.Fprintln(t.out, messaging.FormatReplies(t.sess.Messages()))
	case "/select":
		offer, leg, err := t.sess.SelectFlight(arg)
		if err != nil {
			fmt.Fprintf(t.out, "error: %v\n", err)
			return false
		}
		fmt.Fprintf(t.out, "Added %s flight: %s\n", leg, cards.Describe(offer))
	case "/hotel":
		in, out := t.sess.Stay()
		h, ok := t.sess.Catalog().Hotel(arg, offers.HotelQuery{CheckIn: in, CheckOut: out}.Nights())
		if !ok {
			fmt.Fprintf(t.out, "error: no hotel %q\n", arg)
			return false
		}
		t.sess.Plan().SelectHotel(h)
		fmt.Fprintf(t.out, "Booked %s for %d nights.\n", h.Name, h.Nights)
	case "/fun":
		e, ok := t.sess.Catalog().EntertainmentByID(arg)
		if !ok {
			fmt.Fprintf(t.out, "error: no entertainment %q\n", arg)
			return false
		}
		if t.sess.Plan().ToggleEntertainment(e) {
			fmt.Fprintf(t.out, "Added %s.\n", e.Name)
		} else {
			fmt.Fprintf(t.out, "Removed %s.\n", e.Name)
		}
	case "/budget":
		total, err := strconv.ParseFloat(strings.TrimPrefix(arg, "$"), 64)
		if err != nil {
			fmt.Fprintf(t.out, "error: invalid amount %q\n", arg)
			return false
		}
		t.sess.Plan().SetBudget(total)
		report, err := t.sess.Plan().Budget()
		if err != nil {
			fmt.Fprintf(t.out, "error: %v\n", err)
			return false
		}
		fmt.Fprintln(t.out, report.Message)
	case "/plan":
		text, err := messaging.FormatPlan(t.course(), t.sess.Plan().Snapshot())
		if errors.Is(err, messaging.ErrEmptyPlan) {
			fmt.Fprintln(t.out, "Your plan is empty.")
			return false
		}
		fmt.Fprintln(t.out, text)
	case "/ics":
		if arg == "" {
			fmt.Fprintln(t.out, "error: /ics needs a file name")
			return false
		}
		in, out := t.sess.Stay()
		cal, err := t.builder.Build(itinerary.Trip{Course: t.course(), Plan: t.sess.Plan().Snapshot(), CheckIn: in, CheckOut: out})
		if err != nil {
			fmt.Fprintf(t.out, "error: %v\n", err)
			return false
		}
		if err := os.WriteFile(arg, []byte(cal), 0o644); err != nil {
			fmt.Fprintf(t.out, "error: %v\n", err)
			return false
		}
		fmt.Fprintf(t.out, "Wrote %s.\n", arg)
	default:
		fmt.Fprintf(t.out, "unknown command %s, type /help\n", name)
	}
	return false
}
