package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"holdem-sync/apps/client/internal/protocol"
	"holdem-sync/apps/client/internal/store"
	"holdem-sync/card"
	"holdem-sync/holdem"
)

func renderTable(st store.State) {
	snap := st.Snapshot
	if snap == nil || snap.Game == nil {
		pterm.Info.Println("Waiting for the table...")
		return
	}
	g := snap.Game
	me := st.Connection.UserID
	aff := st.Affordances()

	pterm.DefaultSection.Printfln("%s  pot %d  board %s", g.Stage.Normalize(), g.Pot, boardLabel(g.Board))

	data := pterm.TableData{{"#", "Player", "Chips", "Bet", "Status", "Cards", "Equity"}}
	for i, seat := range g.Seats {
		if !seat.Occupied() {
			data = append(data, []string{strconv.Itoa(i), pterm.Gray("empty"), "", "", "", "", ""})
			continue
		}
		name := seat.Name + positionMarks(g, i)
		if seat.ID == me {
			name = pterm.LightCyan(name)
		}
		if i == g.CurrentActor && g.Stage.Betting() {
			name = "> " + name
		}
		if !seat.IsConnected {
			name += pterm.Gray(" (away)")
		}
		data = append(data, []string{
			strconv.Itoa(i),
			name,
			strconv.FormatInt(seat.Chips, 10),
			strconv.FormatInt(seat.CurrentBet, 10),
			statusLabel(seat.Status),
			handLabel(seat),
			equityLabel(snap, i),
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()

	for _, pot := range g.SidePots {
		pterm.Printfln("  side pot %d for seats %v", pot.Amount, pot.EligiblePlayers)
	}
	for _, r := range g.ShowdownResults {
		if r.ChipsWon > 0 {
			pterm.Success.Printfln("Seat %d wins %d", r.SeatIndex, r.ChipsWon)
		}
	}

	switch {
	case aff.Spectator:
		pterm.Info.Println("You are spectating.")
	case aff.MyTurn:
		hint := "check"
		if !aff.CanCheck {
			hint = fmt.Sprintf("call %d", aff.CallAmount)
		}
		if aff.CanRaise {
			hint += fmt.Sprintf(", raise %d-%d", aff.Raise.Min, aff.Raise.Max)
		}
		pterm.Info.Printfln("Your turn: fold, %s, allin", hint)
	case aff.ShowdownDecision:
		pterm.Info.Println("You may show or muck.")
	case aff.ShowStartNextHand && aff.Host && !aff.CanStartNextHand:
		wait := time.Until(st.UI.NextHandUnlockAt).Round(time.Second)
		pterm.Info.Printfln("Hand over. Next hand can be dealt in %s.", wait)
	case aff.ShowStartNextHand && aff.Host:
		pterm.Info.Println("Hand over. Type next to deal again.")
	}
	if aff.MadeHand != holdem.HandInvalid {
		pterm.Info.Printfln("You hold: %s", aff.MadeHand)
	}
	if st.UI.Pending != nil {
		pterm.Info.Printfln("Waiting on %s...", st.UI.Pending.Action)
	}
}

func positionMarks(g *protocol.Game, i int) string {
	var marks []string
	if i == g.ButtonPos {
		marks = append(marks, "D")
	}
	if i == g.SBPos {
		marks = append(marks, "SB")
	}
	if i == g.BBPos {
		marks = append(marks, "BB")
	}
	if len(marks) == 0 {
		return ""
	}
	return " [" + strings.Join(marks, ",") + "]"
}

func statusLabel(s holdem.SeatStatus) string {
	switch s {
	case holdem.SeatFolded:
		return pterm.Gray(string(s))
	case holdem.SeatAllIn:
		return pterm.Red(string(s))
	case holdem.SeatActive:
		return pterm.Green(string(s))
	default:
		return string(s)
	}
}

func handLabel(seat protocol.Seat) string {
	if len(seat.Hand) == 0 {
		return ""
	}
	return card.Labels(seat.Hand)
}

func boardLabel(board []card.Card) string {
	if len(board) == 0 {
		return "-"
	}
	return card.Labels(board)
}

func equityLabel(snap *protocol.Snapshot, seat int) string {
	eq, ok := snap.Equities[strconv.Itoa(seat)]
	if !ok {
		return ""
	}
	return fmt.Sprintf("%.1f%%", eq*100)
}

func printConnection(c store.Connection) {
	switch c.Status {
	case store.StatusConnected:
		pterm.Success.Println("Connected.")
	case store.StatusConnecting:
		pterm.Info.Println("Connecting...")
	case store.StatusReconnecting:
		if c.ReconnectAttempt > 0 {
			pterm.Warning.Printfln("Connection lost. Reconnecting (attempt %d, in %s)...", c.ReconnectAttempt, c.ReconnectDelay)
		} else {
			pterm.Warning.Println("Connection lost. Reconnecting...")
		}
	default:
		pterm.Info.Println("Disconnected.")
	}
}

func printNotification(n store.Notification) {
	switch n.Severity {
	case store.SeverityError:
		pterm.Error.Println(n.Message)
	case store.SeveritySuccess:
		pterm.Success.Println(n.Message)
	default:
		pterm.Info.Println(n.Message)
	}
}
