package config

import "fmt"

// validate checks the structural invariants spec.md §3/§6 place on the
// configuration, ahead of the deeper CU/SubChId checks ToEnsemble's
// Ensemble.Build() performs once the ensemble is assembled.
func validate(cfg *Config) error {
	if cfg.Ensemble.ID == "" {
		return fmt.Errorf("ensemble.id is required")
	}
	if cfg.Ensemble.TransmissionMode < 1 || cfg.Ensemble.TransmissionMode > 4 {
		return fmt.Errorf("ensemble.transmission_mode must be between 1 and 4")
	}

	uids := make(map[string]bool, len(cfg.Subchannels))
	for _, sc := range cfg.Subchannels {
		if sc.UID == "" {
			return fmt.Errorf("subchannel entry missing uid")
		}
		if uids[sc.UID] {
			return fmt.Errorf("duplicate subchannel uid %q", sc.UID)
		}
		uids[sc.UID] = true
		if sc.BitrateKbps <= 0 {
			return fmt.Errorf("subchannel %s: bitrate must be positive", sc.UID)
		}
		if sc.Input == "" {
			return fmt.Errorf("subchannel %s: input is required", sc.UID)
		}
	}

	svcUIDs := make(map[string]bool, len(cfg.Services))
	for _, svc := range cfg.Services {
		if svc.UID == "" {
			return fmt.Errorf("service entry missing uid")
		}
		if svcUIDs[svc.UID] {
			return fmt.Errorf("duplicate service uid %q", svc.UID)
		}
		svcUIDs[svc.UID] = true
		if svc.ID == "" {
			return fmt.Errorf("service %s: id is required", svc.UID)
		}
		if svc.PTy > 31 {
			return fmt.Errorf("service %s: pty must be in [0,31]", svc.UID)
		}
	}

	for _, comp := range cfg.Components {
		if comp.ServiceID != "" && !svcUIDs[comp.ServiceID] {
			return fmt.Errorf("component %s: service_id %q not found among services", comp.UID, comp.ServiceID)
		}
		if comp.SubchannelID != "" && !uids[comp.SubchannelID] {
			return fmt.Errorf("component %s: subchannel_id %q not found among subchannels", comp.UID, comp.SubchannelID)
		}
	}

	if cfg.Remote.Enabled && cfg.Remote.Password == "" && cfg.Remote.PasswordHash == "" {
		return fmt.Errorf("remote.password or remote.password_hash is required when remote is enabled")
	}

	if cfg.Web.Enabled && (cfg.Web.Port <= 0 || cfg.Web.Port > 65535) {
		return fmt.Errorf("web.port must be between 1 and 65535")
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Prometheus.Enabled {
		if cfg.Metrics.Prometheus.Port <= 0 || cfg.Metrics.Prometheus.Port > 65535 {
			return fmt.Errorf("metrics.prometheus.port must be between 1 and 65535")
		}
	}

	return nil
}
