package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/go-dab/dabmux/pkg/ensemble"
)

// Config is the top-level shape spec.md §6 defines: the ensemble
// itself, its subchannels/services/components, the ETI/EDI output
// stages, and the ambient subsystems (remote control, web dashboard,
// persistence, logging, metrics).
type Config struct {
	Ensemble    EnsembleConfig      `mapstructure:"ensemble"`
	Subchannels []SubchannelConfig  `mapstructure:"subchannels"`
	Services    []ServiceConfig     `mapstructure:"services"`
	Components  []ComponentConfig   `mapstructure:"components"`

	Output   OutputConfig   `mapstructure:"output"`
	EDI      EDIConfig      `mapstructure:"edi"`
	Remote   RemoteConfig   `mapstructure:"remote"`
	Web      WebConfig      `mapstructure:"web"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// LabelConfig is the long/short label pair carried by both the
// ensemble and services (spec.md §6 "label{text,short}").
type LabelConfig struct {
	Text  string `mapstructure:"text"`
	Short string `mapstructure:"short"`
}

// DatetimeConfig controls FIG 0/10 date & time signalling.
type DatetimeConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Source     string `mapstructure:"source"` // "system" (only source implemented)
	IncludeLTO bool   `mapstructure:"include_lto"`
	UTCFlag    bool   `mapstructure:"utc_flag"`
	Confidence bool   `mapstructure:"confidence"`
}

// EnsembleConfig is spec.md §6's `ensemble` block.
type EnsembleConfig struct {
	ID               string         `mapstructure:"id"` // "0xCE15" or decimal
	ECC              int            `mapstructure:"ecc"`
	TransmissionMode int            `mapstructure:"transmission_mode"`
	Label            LabelConfig    `mapstructure:"label"`
	LTOAuto          bool           `mapstructure:"lto_auto"`
	LTO              int            `mapstructure:"lto"` // half-hours, used when !lto_auto
	Datetime         DatetimeConfig `mapstructure:"datetime"`
}

// DLSConfig is the dynamic label segment input block nested under a
// subchannel's pad config.
type DLSConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	InputType    string `mapstructure:"input_type"`
	InputPath    string `mapstructure:"input_path"`
	Charset      int    `mapstructure:"charset"`
	Label        string `mapstructure:"label"`
	PollInterval int    `mapstructure:"poll_interval"`
}

// PADConfig is a subchannel's `pad` block.
type PADConfig struct {
	Enabled bool      `mapstructure:"enabled"`
	Length  int       `mapstructure:"length"`
	DLS     DLSConfig `mapstructure:"dls"`
}

// SubchannelConfig is one entry of spec.md §6's `subchannels` list.
// Protection accepts the short string form ("UEP_2", "EEP_3A",
// "EEP_1B"); see DESIGN.md for why the alternate
// `protection{level,shortform}` object form was dropped in favor of
// this single string shape (Open Question resolution).
type SubchannelConfig struct {
	UID         string     `mapstructure:"uid"`
	ID          int        `mapstructure:"id"` // used as the SubChId as given; never auto-assigned
	Type        string     `mapstructure:"type"` // dab_audio|dabplus_audio|packet_data|dmb
	BitrateKbps int        `mapstructure:"bitrate"`
	Protection  string     `mapstructure:"protection"`
	StartAddress int       `mapstructure:"start_address"` // not read: Build() assigns every start address sequentially
	Input       string     `mapstructure:"input"`
	PAD         *PADConfig `mapstructure:"pad"`
}

// ServiceConfig is one entry of spec.md §6's `services` list.
type ServiceConfig struct {
	UID           string      `mapstructure:"uid"`
	ID            string      `mapstructure:"id"` // "0x5001" or decimal; 32-bit sets SIdExtended
	Label         LabelConfig `mapstructure:"label"`
	PTy           int         `mapstructure:"pty"`
	Language      int         `mapstructure:"language"`
	Announcements int         `mapstructure:"announcements"`
	Clusters      []int       `mapstructure:"clusters"`
}

// ComponentConfig is one entry of spec.md §6's `components` list.
// service_id/subchannel_id reference the owning ServiceConfig/
// SubchannelConfig UID (see DESIGN.md for this Open Question
// resolution). The list auto-synthesizes one component per service,
// bound to the subchannel sharing its declaration index, when omitted
// entirely.
type ComponentConfig struct {
	UID          string `mapstructure:"uid"`
	ServiceID    string `mapstructure:"service_id"`
	SubchannelID string `mapstructure:"subchannel_id"`
	Type         int    `mapstructure:"type"`
}

// OutputConfig configures the ETI file sink (spec.md §6 "ETI file
// output").
type OutputConfig struct {
	File   string `mapstructure:"file"`
	Format string `mapstructure:"format"` // raw|framed|streamed
}

// EDIDestinationConfig is one EDI network sink.
type EDIDestinationConfig struct {
	Transport string `mapstructure:"transport"` // udp|tcp
	Mode      string `mapstructure:"mode"`      // tcp: client|server
	Address   string `mapstructure:"address"`
}

// EDIConfig configures the optional EDI/PFT output stage (spec.md
// §4.5).
type EDIConfig struct {
	Enabled      bool                   `mapstructure:"enabled"`
	Destinations []EDIDestinationConfig `mapstructure:"destinations"`
	PFT          bool                   `mapstructure:"pft"`
	PFTFEC       int                    `mapstructure:"pft_fec"`
	FragmentSize int                    `mapstructure:"fragment_size"`
	TAIUTCOffset int                    `mapstructure:"tai_utc_offset"`
}

// RemoteConfig configures the ZMQ/telnet remote-control surface
// (spec.md §4.7, §6 "Remote control endpoints").
type RemoteConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	ZMQEndpoint  string `mapstructure:"zmq_endpoint"`
	TelnetAddr   string `mapstructure:"telnet_addr"`
	Password     string `mapstructure:"password"`
	PasswordHash string `mapstructure:"password_hash"`
}

// WebConfig configures the optional live statistics dashboard.
type WebConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// DatabaseConfig configures the audit/statistics persistence layer.
type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled    bool             `mapstructure:"enabled"`
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig holds Prometheus metrics configuration.
type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// Load loads configuration from file and environment variables.
func Load(configFile string) (*Config, error) {
	setDefaults()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath("/etc/dabmux")
	}

	viper.SetEnvPrefix("DABMUX")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config file: use defaults.
		} else if os.IsNotExist(err) {
			// Explicitly-named file missing: also fall through to defaults.
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("ensemble.transmission_mode", 1)
	viper.SetDefault("ensemble.ecc", 0xE1)

	viper.SetDefault("output.format", "raw")

	viper.SetDefault("edi.pft_fec", 0)
	viper.SetDefault("edi.fragment_size", 1400)

	viper.SetDefault("remote.zmq_endpoint", "tcp://*:9000")
	viper.SetDefault("remote.telnet_addr", ":9001")

	viper.SetDefault("web.host", "0.0.0.0")
	viper.SetDefault("web.port", 8080)

	viper.SetDefault("database.path", "dabmux.db")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	viper.SetDefault("metrics.prometheus.port", 9090)
	viper.SetDefault("metrics.prometheus.path", "/metrics")
}

// parseID16 parses a "0x..." or decimal string into a uint16.
func parseID16(s string) (uint16, error) {
	v, err := parseIDBits(s, 16)
	return uint16(v), err
}

func parseIDBits(s string, bits int) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, bits)
	}
	return strconv.ParseUint(s, 10, bits)
}

// ToEnsemble converts the loaded config into an ensemble.Ensemble,
// running Build() to assign CU start addresses and validate
// invariants (spec.md §3).
func (c *Config) ToEnsemble() (*ensemble.Ensemble, error) {
	eid, err := parseID16(c.Ensemble.ID)
	if err != nil {
		return nil, fmt.Errorf("ensemble.id: %w", err)
	}

	e := &ensemble.Ensemble{
		EId:          eid,
		ECC:          uint8(c.Ensemble.ECC),
		Label:        ensemble.Label{Text: c.Ensemble.Label.Text, Short: c.Ensemble.Label.Short},
		Mode:         ensemble.TransmissionMode(c.Ensemble.TransmissionMode),
		LTOAuto:      c.Ensemble.LTOAuto,
		LTOHalfHours: c.Ensemble.LTO,
	}
	if e.Mode == 0 {
		e.Mode = ensemble.TM_I
	}

	for _, sc := range c.Subchannels {
		built, err := sc.toSubchannel()
		if err != nil {
			return nil, fmt.Errorf("subchannel %s: %w", sc.UID, err)
		}
		e.Subchannels = append(e.Subchannels, built)
	}

	for _, svc := range c.Services {
		built, err := svc.toService()
		if err != nil {
			return nil, fmt.Errorf("service %s: %w", svc.UID, err)
		}
		e.Services = append(e.Services, built)
	}

	components := c.Components
	if len(components) == 0 {
		components = autoSynthesizeComponents(c.Services, c.Subchannels)
	}
	for _, comp := range components {
		e.Components = append(e.Components, &ensemble.Component{
			UID:        comp.UID,
			ServiceUID: comp.ServiceID,
			SubchanUID: comp.SubchannelID,
			Type:       uint8(comp.Type),
		})
	}

	if err := e.Build(); err != nil {
		return nil, err
	}
	return e, nil
}

// autoSynthesizeComponents pairs each service with the subchannel at
// the same declaration index when the `components` list is omitted
// (spec.md §6 "auto-synthesized if omitted").
func autoSynthesizeComponents(services []ServiceConfig, subchannels []SubchannelConfig) []ComponentConfig {
	n := len(services)
	if len(subchannels) < n {
		n = len(subchannels)
	}
	out := make([]ComponentConfig, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, ComponentConfig{
			UID:          services[i].UID + "-component",
			ServiceID:    services[i].UID,
			SubchannelID: subchannels[i].UID,
		})
	}
	return out
}

func (sc SubchannelConfig) toSubchannel() (*ensemble.Subchannel, error) {
	protection, err := parseProtection(sc.Protection)
	if err != nil {
		return nil, err
	}

	out := &ensemble.Subchannel{
		UID:         sc.UID,
		SubChId:     sc.ID,
		Type:        parseSubchannelType(sc.Type),
		BitrateKbps: sc.BitrateKbps,
		Protection:  protection,
		InputURI:    sc.Input,
	}
	if sc.PAD != nil {
		out.PAD = &ensemble.PADDescriptor{
			Enabled: sc.PAD.Enabled,
			Length:  sc.PAD.Length,
			DLS: ensemble.DLSConfig{
				Enabled:      sc.PAD.DLS.Enabled,
				InputType:    sc.PAD.DLS.InputType,
				InputPath:    sc.PAD.DLS.InputPath,
				Charset:      sc.PAD.DLS.Charset,
				Label:        sc.PAD.DLS.Label,
				PollInterval: sc.PAD.DLS.PollInterval,
			},
		}
	}
	return out, nil
}

func parseSubchannelType(s string) ensemble.SubchannelType {
	switch strings.ToLower(s) {
	case "dabplus_audio", "dab+":
		return ensemble.SubchannelDABPlusAudio
	case "packet_data", "packet":
		return ensemble.SubchannelPacketData
	case "dmb":
		return ensemble.SubchannelDMB
	default:
		return ensemble.SubchannelDABAudio
	}
}

// parseProtection parses the short string protection form spec.md §6
// documents ("UEP_2", "EEP_3A", "EEP_1B").
func parseProtection(s string) (ensemble.Protection, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(s, "UEP_"):
		level, err := strconv.Atoi(strings.TrimPrefix(s, "UEP_"))
		if err != nil {
			return ensemble.Protection{}, fmt.Errorf("invalid UEP protection %q", s)
		}
		return ensemble.Protection{Form: ensemble.ProtectionUEP, Level: level}, nil
	case strings.HasPrefix(s, "EEP_"):
		rest := strings.TrimPrefix(s, "EEP_")
		if len(rest) < 2 {
			return ensemble.Protection{}, fmt.Errorf("invalid EEP protection %q", s)
		}
		level, err := strconv.Atoi(rest[:len(rest)-1])
		if err != nil {
			return ensemble.Protection{}, fmt.Errorf("invalid EEP protection %q", s)
		}
		profile := ensemble.EEPProfileA
		if strings.EqualFold(rest[len(rest)-1:], "B") {
			profile = ensemble.EEPProfileB
		}
		return ensemble.Protection{Form: ensemble.ProtectionEEP, Level: level, EEP: profile}, nil
	default:
		return ensemble.Protection{}, fmt.Errorf("unrecognized protection form %q (expected UEP_<level> or EEP_<level><A|B>)", s)
	}
}

func (svc ServiceConfig) toService() (*ensemble.Service, error) {
	bits := 16
	if hex := strings.ToUpper(svc.ID); strings.HasPrefix(hex, "0X") && len(hex) > 6 {
		bits = 32
	}
	sid, err := parseIDBits(svc.ID, 32)
	if err != nil {
		return nil, fmt.Errorf("id: %w", err)
	}
	if sid > 0xFFFF {
		bits = 32
	}

	clusters := make([]uint8, len(svc.Clusters))
	for i, c := range svc.Clusters {
		clusters[i] = uint8(c)
	}

	return &ensemble.Service{
		UID:           svc.UID,
		SId:           uint32(sid),
		SIdExtended:   bits == 32,
		Label:         ensemble.Label{Text: svc.Label.Text, Short: svc.Label.Short},
		PTy:           uint8(svc.PTy),
		Language:      uint8(svc.Language),
		Announcements: uint16(svc.Announcements),
		Clusters:      clusters,
	}, nil
}
