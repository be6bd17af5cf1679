package remote

import (
	"reflect"
	"testing"
)

func TestTokenizeTelnet_QuotedSpan(t *testing.T) {
	got := tokenizeTelnet("set label comp1 'Now Playing'")
	want := []string{"set", "label", "comp1", "Now Playing"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseTelnetCommand(t *testing.T) {
	cases := []struct {
		line    string
		command string
		args    map[string]any
	}{
		{"get statistics", "get_statistics", map[string]any{}},
		{"get label comp1", "get_label", map[string]any{"component_uid": "comp1"}},
		{"set label comp1 'Now Playing'", "set_label", map[string]any{"component_uid": "comp1", "text": "Now Playing"}},
		{"set service pty radio1 10", "set_service_pty", map[string]any{"service_uid": "radio1", "pty": 10}},
		{"set service language radio1 15", "set_service_language", map[string]any{"service_uid": "radio1", "language": 15}},
		{"set service label radio1 'Test Radio' 'Test'", "set_service_label",
			map[string]any{"service_uid": "radio1", "text": "Test Radio", "short_text": "Test"}},
		{"get all services", "get_all_services", map[string]any{}},
		{"get all components", "get_all_components", map[string]any{}},
		{"get all subchannels", "get_all_subchannels", map[string]any{}},
		{"trigger announcement 0x5001 alarm 0", "trigger_announcement",
			map[string]any{"service_id": 0x5001, "type": "alarm", "subchannel_id": 0}},
		{"clear announcement 0x5001 alarm", "clear_announcement",
			map[string]any{"service_id": 0x5001, "type": "alarm"}},
		{"reload carousel comp1", "reload_carousel", map[string]any{"component_uid": "comp1"}},
		{"get carousel stats comp1", "get_carousel_stats", map[string]any{"component_uid": "comp1"}},
		{"set log level debug", "set_log_level", map[string]any{"level": "debug"}},
		{"set log level debug carousel", "set_log_level", map[string]any{"level": "debug", "module": "carousel"}},
		{"get log level", "get_log_level", map[string]any{}},
		{"list commands", "list_commands", map[string]any{}},
		{"get command info set_label", "get_command_info", map[string]any{"command": "set_label"}},
	}

	for _, tc := range cases {
		cmd, args, err := parseTelnetCommand(tc.line)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tc.line, err)
		}
		if cmd != tc.command {
			t.Errorf("%q: command = %q, want %q", tc.line, cmd, tc.command)
		}
		if !reflect.DeepEqual(args, tc.args) {
			t.Errorf("%q: args = %+v, want %+v", tc.line, args, tc.args)
		}
	}
}

func TestParseTelnetCommand_Invalid(t *testing.T) {
	if _, _, err := parseTelnetCommand("invalid command"); err == nil {
		t.Fatal("expected error for unrecognized command format")
	}
}

func TestFormatResponse_Success(t *testing.T) {
	out := formatResponse(ok(map[string]any{"value": 42}))
	if out != "✓ Success\nvalue: 42\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestFormatResponse_Failure(t *testing.T) {
	out := formatResponse(fail("boom"))
	if out != "✗ Error: boom\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}
