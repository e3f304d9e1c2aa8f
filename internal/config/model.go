// internal/config/model.go
//
// Typed configuration model for the Reset course viewer.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `conf/.env`                    – dotenv values,
//   • `conf/global.yaml`                      – primary static file,
//   • `RESET_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *after* unmarshalling, so the rest of the app
// only ever sees plain strings.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`; Koanf ignores `yaml` tags
//     unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
}

//
// Backend section
//

// Backend points at the external API of record.  Every course, lesson,
// user, and authentication operation is proxied there; this app keeps no
// durable state of its own.
type Backend struct {
	BaseURL         string `koanf:"base_url"          validate:"required,url"`
	DefaultCourseID string `koanf:"default_course_id" validate:"required,uuid"`
}

//
// Session section
//

// Session configures the `_auth` cookie.  The *secret* signs and encrypts
// the cookie payload; it should come from the environment or Vault in
// production.  `Secure` forces the Secure attribute even outside a
// production-classified deployment (useful behind a TLS proxy in staging).
type Session struct {
	Secret string `koanf:"secret"`
	Secure bool   `koanf:"secure"`
}

//
// GeoIP section
//

// GeoIP points at an optional GeoLite2-City database used by the
// request-info middleware.  Empty path disables geo lookups.
type GeoIP struct {
	DBPath string `koanf:"db_path"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.  The loader
// discovers `Root` (repo root or RESET_ROOT override) so later code can
// build absolute file paths for templates and form definitions.
type Paths struct {
	Root string // RESET_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load().  It is constructed
// once in main and passed explicitly into everything that needs it; there
// is no hidden process-wide instance.
type Config struct {
	Env     string  `koanf:"env"` // "production" flips cookie hardening
	HTTP    HTTP    `koanf:"http"`
	Backend Backend `koanf:"backend"`
	Session Session `koanf:"session"`
	GeoIP   GeoIP   `koanf:"geoip"`
	Paths   Paths   `koanf:"-"` // not loaded from config files
}

// Production reports whether this deployment is production-classified.
// The Secure cookie attribute and the secret-presence check key off it.
func (c *Config) Production() bool { return c.Env == "production" }
