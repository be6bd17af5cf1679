package remote

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-dab/dabmux/pkg/logger"
)

// TelnetServer exposes the same command set as ZMQServer over
// newline-delimited ASCII lines, one connection per session, each
// requiring "auth <password>" as its first command when a password is
// configured (spec.md §4.7 "telnet (newline-delimited ASCII
// commands)"), grounded on original_source remote/telnet_server.py's
// TelnetSession command grammar.
type TelnetServer struct {
	addr       string
	dispatcher *Dispatcher
	auth       *Authenticator
	audit      *AuditLogger
	log        *logger.Logger

	mu       sync.Mutex
	sessions int
}

// NewTelnetServer builds a TelnetServer bound to addr (e.g.
// "127.0.0.1:9001") once Start is called.
func NewTelnetServer(addr string, dispatcher *Dispatcher, auth *Authenticator, audit *AuditLogger, log *logger.Logger) *TelnetServer {
	return &TelnetServer{addr: addr, dispatcher: dispatcher, auth: auth, audit: audit, log: log.WithComponent("remote-telnet")}
}

// Start listens on addr and serves connections until ctx is
// cancelled.
func (s *TelnetServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("remote: telnet listen %s: %w", s.addr, err)
	}
	s.log.Info("telnet remote control listening", logger.String("addr", s.addr))

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Error("telnet accept failed", logger.Error(err))
			continue
		}
		s.mu.Lock()
		s.sessions++
		id := s.sessions
		s.mu.Unlock()
		go s.serve(ctx, conn, id)
	}
}

func (s *TelnetServer) serve(ctx context.Context, conn net.Conn, id int) {
	defer conn.Close()
	client := conn.RemoteAddr().String()
	authenticated := s.auth == nil || !s.auth.Enabled()

	w := bufio.NewWriter(conn)
	fmt.Fprintf(w, "go-dab dabmux telnet server, session %d\n", id)
	if !authenticated {
		fmt.Fprint(w, "auth required, use: auth <password>\n")
	}
	fmt.Fprint(w, "> ")
	w.Flush()

	scanner := bufio.NewScanner(conn)
	history := make([]string, 0, 16)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Fprint(w, "> ")
			w.Flush()
			continue
		}

		if strings.EqualFold(line, "quit") || strings.EqualFold(line, "exit") {
			fmt.Fprint(w, "Goodbye\n")
			w.Flush()
			return
		}
		if !authenticated {
			if ok := s.tryAuth(line); ok {
				authenticated = true
				fmt.Fprint(w, "✓ Authenticated\n")
			} else {
				fmt.Fprint(w, "✗ Authentication failed\n")
			}
			fmt.Fprint(w, "> ")
			w.Flush()
			continue
		}

		history = append(history, line)
		fmt.Fprint(w, s.execute(line, client, history))
		fmt.Fprint(w, "> ")
		w.Flush()
	}
}

func (s *TelnetServer) tryAuth(line string) bool {
	fields := strings.Fields(line)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "auth") {
		return false
	}
	return s.auth.Verify(fields[1])
}

func (s *TelnetServer) execute(line, client string, history []string) string {
	switch strings.ToLower(line) {
	case "help":
		return helpText()
	case "history":
		return formatHistory(history)
	case "list commands", "commands":
		line = "list commands"
	}

	command, args, err := parseTelnetCommand(line)
	if err != nil {
		return fmt.Sprintf("✗ %s\n", err)
	}

	start := time.Now()
	resp := s.dispatcher.Handle(Request{Command: command, Args: args})
	if s.audit != nil {
		var execErr error
		if !resp.Success {
			execErr = fmt.Errorf("%s", resp.Error)
		}
		s.audit.Log("telnet", client, command, args, resp.Success, time.Since(start), execErr)
	}
	return formatResponse(resp)
}

func formatResponse(resp Response) string {
	if !resp.Success {
		return fmt.Sprintf("✗ Error: %s\n", resp.Error)
	}
	var b strings.Builder
	b.WriteString("✓ Success\n")
	keys := make([]string, 0, len(resp.Data))
	for k := range resp.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		formatValue(&b, k, resp.Data[k], 0)
	}
	return b.String()
}

func formatValue(b *strings.Builder, key string, val any, indent int) {
	pad := strings.Repeat("  ", indent)
	switch v := val.(type) {
	case []map[string]any:
		fmt.Fprintf(b, "%s%s:\n", pad, key)
		for _, item := range v {
			itemKeys := make([]string, 0, len(item))
			for k := range item {
				itemKeys = append(itemKeys, k)
			}
			sort.Strings(itemKeys)
			for _, k := range itemKeys {
				formatValue(b, k, item[k], indent+1)
			}
			fmt.Fprintf(b, "%s  --\n", pad)
		}
	case []string:
		fmt.Fprintf(b, "%s%s: %s\n", pad, key, strings.Join(v, ", "))
	default:
		fmt.Fprintf(b, "%s%s: %v\n", pad, key, v)
	}
}

func helpText() string {
	var b strings.Builder
	b.WriteString("Commands:\n")
	b.WriteString("  get statistics\n  get label <component_uid>\n  set label <component_uid> '<text>'\n")
	b.WriteString("  get service info <service_uid>\n  set service pty <service_uid> <n>\n")
	b.WriteString("  set service language <service_uid> <n>\n  set service label <service_uid> '<text>' ['<short>']\n")
	b.WriteString("  get all services|components|subchannels\n  get input status <subchannel_uid>\n")
	b.WriteString("  trigger announcement <service_id> <type> <subchannel_id>\n  clear announcement <service_id> <type>\n")
	b.WriteString("  reload carousel <component_uid>\n  get carousel stats <component_uid>\n")
	b.WriteString("  set log level <level> [<module>]\n  get log level [<module>]\n")
	b.WriteString("  list commands\n  get command info <command>\n  history\n  quit\n")
	return b.String()
}

func formatHistory(history []string) string {
	if len(history) == 0 {
		return "(empty)\n"
	}
	var b strings.Builder
	for _, h := range history {
		b.WriteString(h)
		b.WriteByte('\n')
	}
	return b.String()
}

// parseTelnetCommand maps the telnet command grammar onto the same
// {command, args} shape the ZMQ transport parses from JSON.
func parseTelnetCommand(line string) (string, map[string]any, error) {
	tokens := tokenizeTelnet(line)
	if len(tokens) == 0 {
		return "", nil, fmt.Errorf("empty command")
	}

	has := func(n int) bool { return len(tokens) >= n }

	switch {
	case has(2) && tokens[0] == "get" && tokens[1] == "statistics":
		return "get_statistics", map[string]any{}, nil
	case has(3) && tokens[0] == "get" && tokens[1] == "label":
		return "get_label", map[string]any{"component_uid": tokens[2]}, nil
	case has(4) && tokens[0] == "set" && tokens[1] == "label":
		return "set_label", map[string]any{"component_uid": tokens[2], "text": tokens[3]}, nil
	case has(5) && tokens[0] == "set" && tokens[1] == "service" && tokens[2] == "pty":
		n, err := strconv.Atoi(tokens[4])
		if err != nil {
			return "", nil, fmt.Errorf("invalid pty value %q", tokens[4])
		}
		return "set_service_pty", map[string]any{"service_uid": tokens[3], "pty": n}, nil
	case has(5) && tokens[0] == "set" && tokens[1] == "service" && tokens[2] == "language":
		n, err := strconv.Atoi(tokens[4])
		if err != nil {
			return "", nil, fmt.Errorf("invalid language value %q", tokens[4])
		}
		return "set_service_language", map[string]any{"service_uid": tokens[3], "language": n}, nil
	case has(5) && tokens[0] == "set" && tokens[1] == "service" && tokens[2] == "label":
		args := map[string]any{"service_uid": tokens[3], "text": tokens[4]}
		if has(6) {
			args["short_text"] = tokens[5]
		}
		return "set_service_label", args, nil
	case has(4) && tokens[0] == "get" && tokens[1] == "service" && tokens[2] == "info":
		return "get_service_info", map[string]any{"service_uid": tokens[3]}, nil
	case has(3) && tokens[0] == "get" && tokens[1] == "all" && tokens[2] == "services":
		return "get_all_services", map[string]any{}, nil
	case has(3) && tokens[0] == "get" && tokens[1] == "all" && tokens[2] == "components":
		return "get_all_components", map[string]any{}, nil
	case has(3) && tokens[0] == "get" && tokens[1] == "all" && tokens[2] == "subchannels":
		return "get_all_subchannels", map[string]any{}, nil
	case has(4) && tokens[0] == "get" && tokens[1] == "input" && tokens[2] == "status":
		return "get_input_status", map[string]any{"subchannel_uid": tokens[3]}, nil
	case has(5) && tokens[0] == "trigger" && tokens[1] == "announcement":
		serviceID, err := parseIntOrHex(tokens[2])
		if err != nil {
			return "", nil, err
		}
		subchan, err := strconv.Atoi(tokens[4])
		if err != nil {
			return "", nil, fmt.Errorf("invalid subchannel_id %q", tokens[4])
		}
		return "trigger_announcement", map[string]any{"service_id": serviceID, "type": tokens[3], "subchannel_id": subchan}, nil
	case has(4) && tokens[0] == "clear" && tokens[1] == "announcement":
		serviceID, err := parseIntOrHex(tokens[2])
		if err != nil {
			return "", nil, err
		}
		return "clear_announcement", map[string]any{"service_id": serviceID, "type": tokens[3]}, nil
	case has(3) && tokens[0] == "reload" && tokens[1] == "carousel":
		return "reload_carousel", map[string]any{"component_uid": tokens[2]}, nil
	case has(4) && tokens[0] == "get" && tokens[1] == "carousel" && tokens[2] == "stats":
		return "get_carousel_stats", map[string]any{"component_uid": tokens[3]}, nil
	case has(4) && tokens[0] == "set" && tokens[1] == "log" && tokens[2] == "level":
		args := map[string]any{"level": tokens[3]}
		if has(5) {
			args["module"] = tokens[4]
		}
		return "set_log_level", args, nil
	case has(3) && tokens[0] == "get" && tokens[1] == "log" && tokens[2] == "level":
		args := map[string]any{}
		if has(4) {
			args["module"] = tokens[3]
		}
		return "get_log_level", args, nil
	case has(2) && tokens[0] == "list" && tokens[1] == "commands":
		return "list_commands", map[string]any{}, nil
	case has(4) && tokens[0] == "get" && tokens[1] == "command" && tokens[2] == "info":
		return "get_command_info", map[string]any{"command": tokens[3]}, nil
	default:
		return "", nil, fmt.Errorf("unknown command format: %q", line)
	}
}

func parseIntOrHex(s string) (int, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, err := strconv.ParseInt(s[2:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid hex value %q", s)
		}
		return int(n), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return n, nil
}

// tokenizeTelnet splits on whitespace but keeps single-quoted spans
// (e.g. 'Now Playing') as one token, matching the grammar tested in
// original_source's TelnetSession.parse_command.
func tokenizeTelnet(line string) []string {
	var tokens []string
	var cur strings.Builder
	inQuote := false
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range line {
		switch {
		case r == '\'':
			inQuote = !inQuote
		case r == ' ' && !inQuote:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}
