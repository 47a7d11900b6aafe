package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/uuid"

	"github.com/bridged-io/bridged/pkg/envelope"
)

// console drives the interactive command loop against one client
// connection, printing every frame the bridge sends back as it arrives.
type console struct {
	c  *client
	rl *readline.Instance
}

func newConsole(c *client) *console {
	rl, err := readline.New("bridged> ")
	if err != nil {
		// readline needs a real terminal; fall back to a plain prompt writer
		// so piped input (scripts, tests) still works.
		rl = nil
	}
	return &console{c: c, rl: rl}
}

// onFrame is the client's frame sink: it pretty-prints whatever tag just
// arrived so the operator sees acks, data, events and errors as they land,
// interleaved with their own typing.
func (cs *console) onFrame(tag string, raw json.RawMessage) {
	if tag == "disconnected" {
		fmt.Println("\n-- connection closed --")
		return
	}
	var pretty map[string]any
	if err := json.Unmarshal(raw, &pretty); err != nil {
		fmt.Printf("\n[%s] %s\n", tag, string(raw))
		return
	}
	out, _ := json.MarshalIndent(pretty, "", "  ")
	fmt.Printf("\n[%s]\n%s\n", tag, out)
}

func (cs *console) readLine(prompt string) (string, error) {
	if cs.rl != nil {
		return cs.rl.Readline()
	}
	fmt.Print(prompt)
	var line string
	_, err := fmt.Scanln(&line)
	return line, err
}

func (cs *console) run() {
	if cs.rl != nil {
		defer cs.rl.Close()
	}
	cs.printHelp()

	for {
		line, err := cs.readLine("bridged> ")
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			cs.printHelp()
		case "connect":
			cs.cmdSimpleAction(envelope.ActionConnect, args)
		case "disconnect":
			cs.cmdSimpleAction(envelope.ActionDisconnect, args)
		case "send":
			cs.cmdSend(args)
		case "configure":
			cs.cmdConfigure(args)
		case "status":
			cs.cmdSimpleAction(envelope.ActionStatus, args)
		case "heartbeat":
			cs.cmdSimpleAction(envelope.ActionHeartbeat, args)
		case "custom":
			cs.cmdCustom(args)
		case "query":
			cs.cmdQuery(args)
		case "subscribe":
			cs.cmdSubscribe(args, false)
		case "unsubscribe":
			cs.cmdSubscribe(args, true)
		case "quit", "exit", "q":
			fmt.Println("Exiting...")
			return
		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (cs *console) printHelp() {
	fmt.Println(`
bridged-cli commands:
  Commands (target one device):
    connect <device>
    disconnect <device>
    send <device> <json-payload>
    configure <device> <json-config>
    status <device>
    heartbeat <device>
    custom <device> <action> [json-payload]

  Queries:
    query devices
    query device <device>
    query status [device]
    query metrics [device]
    query connections

  Subscriptions:
    subscribe <device|*> <event[,event...]>
    unsubscribe <device|*> [event[,event...]]

  General:
    help               - Show this help
    quit               - Exit

  Every command/query is sent with a generated id, so a matching ack
  always comes back even when the bridge has nothing else to report.`)
}

func (cs *console) cmdSimpleAction(action envelope.Action, args []string) {
	if len(args) < 1 {
		fmt.Printf("Usage: %s <device>\n", action)
		return
	}
	cs.sendCommand(envelope.Command{
		Device: args[0],
		Action: action,
		ID:     uuid.NewString(),
	})
}

func (cs *console) cmdSend(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: send <device> <json-payload>")
		return
	}
	payload := json.RawMessage(strings.Join(args[1:], " "))
	if !json.Valid(payload) {
		fmt.Println("Invalid JSON payload")
		return
	}
	cs.sendCommand(envelope.Command{
		Device:  args[0],
		Action:  envelope.ActionSend,
		Payload: payload,
		ID:      uuid.NewString(),
	})
}

func (cs *console) cmdConfigure(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: configure <device> <json-config>")
		fmt.Println(`  Example: configure dev-1 {"auto_reconnect":true,"io_timeout_ms":5000}`)
		return
	}
	payload := json.RawMessage(strings.Join(args[1:], " "))
	if !json.Valid(payload) {
		fmt.Println("Invalid JSON payload")
		return
	}
	cs.sendCommand(envelope.Command{
		Device:  args[0],
		Action:  envelope.ActionConfigure,
		Payload: payload,
		ID:      uuid.NewString(),
	})
}

func (cs *console) cmdCustom(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: custom <device> <action> [json-payload]")
		return
	}
	var payload json.RawMessage
	if len(args) > 2 {
		payload = json.RawMessage(strings.Join(args[2:], " "))
		if !json.Valid(payload) {
			fmt.Println("Invalid JSON payload")
			return
		}
	}
	cs.sendCommand(envelope.Command{
		Device:  args[0],
		Action:  envelope.ActionCustom,
		Custom:  args[1],
		Payload: payload,
		ID:      uuid.NewString(),
	})
}

func (cs *console) sendCommand(cmd envelope.Command) {
	if err := cs.c.sendCommand(cmd); err != nil {
		fmt.Printf("send failed: %v\n", err)
	}
}

func (cs *console) cmdQuery(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: query devices|device <id>|status [device]|metrics [device]|connections")
		return
	}
	q := envelope.Query{ID: uuid.NewString()}
	switch strings.ToLower(args[0]) {
	case "devices":
		q.Target = envelope.TargetDevices
	case "device":
		if len(args) < 2 {
			fmt.Println("Usage: query device <id>")
			return
		}
		q.Target = envelope.TargetDevice
		q.Device = args[1]
	case "status":
		q.Target = envelope.TargetStatus
		if len(args) > 1 {
			q.Device = args[1]
		}
	case "metrics":
		q.Target = envelope.TargetMetrics
		if len(args) > 1 {
			q.Device = args[1]
		}
	case "connections":
		q.Target = envelope.TargetConnections
	default:
		fmt.Printf("Unknown query target: %s\n", args[0])
		return
	}
	if err := cs.c.sendQuery(q); err != nil {
		fmt.Printf("query failed: %v\n", err)
	}
}

func (cs *console) cmdSubscribe(args []string, unsubscribe bool) {
	verb := "subscribe"
	if unsubscribe {
		verb = "unsubscribe"
	}
	if len(args) < 1 {
		fmt.Printf("Usage: %s <device|*> [event[,event...]]\n", verb)
		return
	}
	sub := envelope.Subscribe{ID: uuid.NewString()}
	if args[0] != "*" {
		sub.Device = args[0]
	}
	if len(args) > 1 {
		sub.Events = strings.Split(args[1], ",")
	}

	var err error
	if unsubscribe {
		err = cs.c.sendUnsubscribe(sub)
	} else {
		err = cs.c.sendSubscribe(sub)
	}
	if err != nil {
		fmt.Printf("%s failed: %v\n", verb, err)
	}
}
