package main

import (
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"holdem-sync/apps/client/internal/protocol"
	"holdem-sync/apps/client/internal/store"
	"holdem-sync/holdem"
)

const helpText = `fold | check | call | raise <to> | allin
sit <seat> [buyin] | stand | rebuy <amount> | show | muck
chat <text> | start | next | end | kick <userId>
blinds <sb> <bb> | stack <amount> | seats <n> | timeout <sec>
state | join <name> | leave | quit`

// dispatch runs one command line. It reports true when the client should exit.
func dispatch(st *store.Store, line string) bool {
	if line == "" {
		return false
	}
	verb, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)
	cur := st.State()
	aff := cur.Affordances()

	if cmd, err := holdem.ParseCommand(verb); err == nil {
		if !cur.CanAct() {
			pterm.Warning.Println("Not your turn.")
			return false
		}
		amount := int64(0)
		switch cmd {
		case holdem.CommandCheck:
			if !aff.CanCheck {
				pterm.Warning.Printfln("Cannot check, %d to call.", aff.CallAmount)
				return false
			}
		case holdem.CommandCall:
			if !aff.CanCall {
				pterm.Warning.Println("Nothing to call.")
				return false
			}
		case holdem.CommandRaise:
			if !aff.CanRaise {
				pterm.Warning.Println("Raising is not possible.")
				return false
			}
			target := cur.UI.RaiseAmount
			if len(args) > 0 {
				v, ok := parseAmount(args[0])
				if !ok {
					return false
				}
				target = v
			}
			st.SetRaiseAmount(target)
			amount = st.State().UI.RaiseAmount
		}
		st.Act(cmd, amount)
		return false
	}

	switch strings.ToLower(verb) {
	case "help", "?":
		pterm.DefaultBox.WithTitle("Commands").Println(helpText)
	case "quit", "exit":
		return true
	case "state":
		renderTable(cur)
		printConnection(cur.Connection)
	case "join":
		st.JoinRoom(rest)
	case "leave":
		st.LeaveRoom()
		pterm.Info.Println("Left the room.")
	case "sit":
		if aff.Seated || len(args) == 0 {
			pterm.Warning.Println("Usage: sit <seat> [buyin] (only while unseated)")
			return false
		}
		seat, err := strconv.Atoi(args[0])
		if err != nil || seat < 0 {
			pterm.Warning.Printfln("Bad seat %q.", args[0])
			return false
		}
		buyIn := cur.UI.BuyInAmount
		if len(args) > 1 {
			v, ok := parseAmount(args[1])
			if !ok {
				return false
			}
			st.SetBuyInAmount(v)
			buyIn = v
		}
		st.SelectSeat(seat)
		st.Send(protocol.Sit(seat, buyIn))
	case "stand":
		st.Send(protocol.Stand())
	case "rebuy":
		if !aff.CanRebuy {
			pterm.Warning.Println("Rebuy is only possible while seated between hands.")
			return false
		}
		if len(args) == 0 {
			pterm.Warning.Println("Usage: rebuy <amount>")
			return false
		}
		if v, ok := parseAmount(args[0]); ok {
			st.Send(protocol.Rebuy(v))
		}
	case "show", "muck":
		if !aff.ShowdownDecision {
			pterm.Warning.Println("No show/muck decision pending.")
			return false
		}
		st.Send(protocol.MuckShow(strings.EqualFold(verb, "show")))
	case "chat", "say":
		st.SendChat(rest)
	case "start", "next", "end", "kick", "blinds", "stack", "seats", "timeout":
		hostCommand(st, aff.Host, aff.CanStartNextHand, strings.ToLower(verb), args)
	default:
		pterm.Warning.Printfln("Unknown command %q, try help.", verb)
	}
	return false
}

func hostCommand(st *store.Store, host, canStartNext bool, verb string, args []string) {
	if !host {
		pterm.Warning.Println("Only the host can do that.")
		return
	}
	switch verb {
	case "start":
		st.Send(protocol.StartGame())
	case "next":
		if !canStartNext {
			pterm.Warning.Println("The next hand cannot be started yet.")
			return
		}
		st.Send(protocol.StartNextHand())
	case "end":
		st.Send(protocol.EndGame())
	case "kick":
		if len(args) == 0 {
			pterm.Warning.Println("Usage: kick <userId>")
			return
		}
		st.Send(protocol.KickPlayer(args[0]))
	case "blinds":
		if len(args) < 2 {
			pterm.Warning.Println("Usage: blinds <sb> <bb>")
			return
		}
		sb, ok1 := parseAmount(args[0])
		bb, ok2 := parseAmount(args[1])
		if ok1 && ok2 {
			st.Send(protocol.UpdateConfig(protocol.ConfigUpdate{SmallBlind: &sb, BigBlind: &bb}))
		}
	case "stack":
		if len(args) > 0 {
			if v, ok := parseAmount(args[0]); ok {
				st.Send(protocol.UpdateConfig(protocol.ConfigUpdate{StartingStack: &v}))
			}
		}
	case "seats", "timeout":
		if len(args) == 0 {
			return
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			pterm.Warning.Printfln("Bad value %q.", args[0])
			return
		}
		u := protocol.ConfigUpdate{MaxSeats: &n}
		if verb == "timeout" {
			u = protocol.ConfigUpdate{ActionTimeout: &n}
		}
		st.Send(protocol.UpdateConfig(u))
	}
}

func parseAmount(s string) (int64, bool) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		pterm.Warning.Printfln("Bad amount %q.", s)
		return 0, false
	}
	return v, true
}
