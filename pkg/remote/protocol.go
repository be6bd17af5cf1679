package remote

// Request is the wire shape both transports parse into (spec.md §4.7
// "Request shape (ZMQ REQ/REP, JSON frames)").
type Request struct {
	Command string         `json:"command"`
	Args    map[string]any `json:"args"`
	Auth    string         `json:"auth"`
}

// Response is the wire shape both transports serialize back.
type Response struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// ok builds a successful Response.
func ok(data map[string]any) Response {
	return Response{Success: true, Data: data}
}

// fail builds a failed Response.
func fail(msg string) Response {
	return Response{Success: false, Error: msg}
}

// CommandSpec documents one command's argument and return shape for
// list_commands/get_command_info (spec.md §4.7), adopted from
// original_source remote/protocol.py's COMMANDS table.
type CommandSpec struct {
	Name        string
	Description string
	Args        []string
	Returns     []string
}

// commandSpecs is the full command surface spec.md §4.7 names.
var commandSpecs = []CommandSpec{
	{"get_statistics", "Get multiplexer statistics", nil,
		[]string{"frame_count", "uptime_seconds", "ensemble_id", "num_services", "num_subchannels"}},
	{"get_label", "Get dynamic label text", []string{"component_uid"},
		[]string{"text", "charset", "toggle"}},
	{"set_label", "Set dynamic label text", []string{"component_uid", "text"},
		[]string{"success"}},
	{"trigger_announcement", "Trigger announcement", []string{"service_id", "type", "subchannel_id"},
		[]string{"success"}},
	{"clear_announcement", "Clear active announcement", []string{"service_id", "type"},
		[]string{"success"}},
	{"get_service_info", "Get service information", []string{"service_uid"},
		[]string{"id", "label", "pty", "language"}},
	{"set_service_pty", "Set service Programme Type", []string{"service_uid", "pty"},
		[]string{"success"}},
	{"set_service_language", "Set service language", []string{"service_uid", "language"},
		[]string{"success"}},
	{"set_service_label", "Set service static label", []string{"service_uid", "text", "short_text"},
		[]string{"success"}},
	{"get_all_services", "Get list of all services", nil, []string{"services"}},
	{"get_all_components", "Get list of all components", nil, []string{"components"}},
	{"get_all_subchannels", "Get list of all subchannels", nil, []string{"subchannels"}},
	{"get_input_status", "Get input source status", []string{"subchannel_uid"},
		[]string{"connected", "bitrate", "state"}},
	{"reload_carousel", "Reload MOT carousel from directory", []string{"component_uid"},
		[]string{"objects_loaded"}},
	{"get_carousel_stats", "Get carousel statistics", []string{"component_uid"},
		[]string{"num_objects", "packets_transmitted", "total_bytes"}},
	{"set_log_level", "Set logging level at runtime", []string{"level", "module"},
		[]string{"success", "level", "module", "message"}},
	{"get_log_level", "Get current logging level", []string{"module"},
		[]string{"level", "numeric_level", "module"}},
	{"list_commands", "List all available commands", nil, []string{"commands"}},
	{"get_command_info", "Get information about a specific command", []string{"command"},
		[]string{"description", "args", "returns"}},
}

func findCommandSpec(name string) (CommandSpec, bool) {
	for _, c := range commandSpecs {
		if c.Name == name {
			return c, true
		}
	}
	return CommandSpec{}, false
}
