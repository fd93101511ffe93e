package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/pterm/pterm"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"holdem-sync/apps/client/internal/replay"
	"holdem-sync/apps/client/internal/store"
)

func main() {
	asJSON := flag.Bool("json", false, "print entries as protojson")
	quiet := flag.Bool("q", false, "only print the final state")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: tapedump [-json] [-q] <tape>")
		os.Exit(2)
	}

	entries, err := load(flag.Arg(0))
	if err != nil {
		var tapeErr *replay.TapeError
		if errors.As(err, &tapeErr) {
			pterm.Warning.Printfln("Tape damaged at entry %d (%s), replaying %d entries", tapeErr.Index, tapeErr.Reason, len(entries))
		} else {
			pterm.Error.Printfln("[TapeDump] %v", err)
			os.Exit(1)
		}
	}

	if !*quiet {
		printEntries(entries, *asJSON)
	}

	st := store.New(store.Options{NotificationTTL: -1, PendingTimeout: -1, RevealDelay: -1})
	defer st.Close()
	replay.Play(entries, st)
	printState(st.State())
}

func load(path string) ([]replay.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return replay.ReadTape(f)
}

func printEntries(entries []replay.Entry, asJSON bool) {
	if asJSON {
		opts := protojson.MarshalOptions{Multiline: false}
		for _, e := range entries {
			msg, err := structpb.NewStruct(map[string]any{
				"seq":     e.Seq,
				"kind":    string(e.Kind),
				"atMs":    e.At.UnixMilli(),
				"frame":   string(e.Frame),
				"message": e.Message,
				"attempt": e.Attempt,
				"delayMs": e.Delay.Milliseconds(),
			})
			if err != nil {
				pterm.Error.Printfln("entry %d: %v", e.Seq, err)
				continue
			}
			b, err := opts.Marshal(msg)
			if err != nil {
				pterm.Error.Printfln("entry %d: %v", e.Seq, err)
				continue
			}
			fmt.Println(string(b))
		}
		return
	}

	data := pterm.TableData{{"Seq", "Time", "Kind", "Detail"}}
	for _, e := range entries {
		detail := ""
		switch e.Kind {
		case replay.KindMessage:
			detail = truncate(string(e.Frame), 80)
		case replay.KindError:
			detail = e.Message
		case replay.KindReconnect:
			detail = fmt.Sprintf("attempt %d in %s", e.Attempt, e.Delay)
		}
		data = append(data, []string{
			strconv.FormatUint(e.Seq, 10),
			e.At.Format("15:04:05.000"),
			string(e.Kind),
			detail,
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func printState(st store.State) {
	c := st.Connection
	pterm.DefaultSection.Println("Replayed state")
	rows := pterm.TableData{
		{"status", string(c.Status)},
		{"user", c.UserID},
		{"joined", strconv.FormatBool(c.HasJoined)},
		{"reconnect attempt", strconv.Itoa(c.ReconnectAttempt)},
		{"last error", c.LastError},
		{"stage", string(st.Snapshot.Stage())},
		{"seats", strconv.Itoa(len(st.Snapshot.Seats()))},
		{"notifications", strconv.Itoa(len(st.UI.Notifications))},
	}
	_ = pterm.DefaultTable.WithData(rows).Render()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
