// Copyright 2024-2026 Aiku AI

package puppet

import (
	_ "embed"
	"strings"
	"text/template"

	up "go.mau.fi/util/configupgrade"
	"gopkg.in/yaml.v3"
)

//go:embed example-config.yaml
var ExampleConfig string

// Config holds the puppet-layer configuration of the bridge.
type Config struct {
	HomeserverDomain string `yaml:"homeserver_domain"`
	// UsernameTemplate is the pattern for ghost user localparts. It must
	// contain exactly one {{.}} placeholder, which is replaced with the
	// LinkedIn member URN.
	UsernameTemplate string `yaml:"username_template"`

	// DisplaynamePreference lists profile fields in the order they should be
	// tried when picking a ghost displayname. Recognized field names:
	// displayname, name, first_name, last_name.
	DisplaynamePreference []string `yaml:"displayname_preference"`
	DisplaynameTemplate   string   `yaml:"displayname_template"`

	SyncWithCustomPuppets   bool `yaml:"sync_with_custom_puppets"`
	BackfillInviteOwnPuppet bool `yaml:"backfill_invite_own_puppet"`

	DoublePuppetServerMap      map[string]string `yaml:"double_puppet_server_map"`
	DoublePuppetAllowDiscovery bool              `yaml:"double_puppet_allow_discovery"`
	LoginSharedSecretMap       map[string]string `yaml:"login_shared_secret_map"`

	displaynameTemplate *template.Template `yaml:"-"`
	mxidTemplate        *MXIDTemplate      `yaml:"-"`
}

// DisplaynameParams holds the parameters for rendering the displayname template.
type DisplaynameParams struct {
	Displayname string
	Name        string
	FirstName   string
	LastName    string
}

func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type rawConfig Config
	return node.Decode((*rawConfig)(c))
}

func (c *Config) PostProcess() error {
	var err error
	c.displaynameTemplate, err = template.New("displayname").Parse(c.DisplaynameTemplate)
	if err != nil {
		return err
	}
	c.mxidTemplate, err = NewMXIDTemplate(c.UsernameTemplate, c.HomeserverDomain)
	return err
}

func upgradeConfig(helper up.Helper) {
	helper.Copy(up.Str, "homeserver_domain")
	helper.Copy(up.Str, "username_template")
	helper.Copy(up.List, "displayname_preference")
	helper.Copy(up.Str, "displayname_template")
	helper.Copy(up.Bool, "sync_with_custom_puppets")
	helper.Copy(up.Bool, "backfill_invite_own_puppet")
	helper.Copy(up.Map, "double_puppet_server_map")
	helper.Copy(up.Bool, "double_puppet_allow_discovery")
	helper.Copy(up.Map, "login_shared_secret_map")
}

// ConfigUpgrader returns the example config and upgrader for the bridge's
// config loading machinery.
func ConfigUpgrader() (example string, upgrader up.Upgrader) {
	return ExampleConfig, up.SimpleUpgrader(upgradeConfig)
}

// FormatDisplayname generates a display name from the template and params.
func (c *Config) FormatDisplayname(params DisplaynameParams) string {
	if c.displaynameTemplate == nil {
		return params.Displayname
	}
	var buf strings.Builder
	if err := c.displaynameTemplate.Execute(&buf, params); err != nil {
		return params.Displayname
	}
	return buf.String()
}

// displaynameForProfile picks the first non-empty field per the configured
// preference list and renders it through the displayname template.
func (c *Config) displaynameForProfile(profile *MiniProfile) string {
	params := DisplaynameParams{
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
	}
	params.Name = strings.TrimSpace(params.FirstName + " " + params.LastName)
	for _, preference := range c.DisplaynamePreference {
		var candidate string
		switch preference {
		case "displayname":
			candidate = params.Displayname
		case "name":
			candidate = params.Name
		case "first_name":
			candidate = params.FirstName
		case "last_name":
			candidate = params.LastName
		}
		if candidate != "" {
			params.Displayname = candidate
			break
		}
	}
	return c.FormatDisplayname(params)
}
