// Package file provides file-based implementations of driven port interfaces.
//
// ConfigStore keeps settings in ~/.projctx/config.toml. A .env file next to
// it is loaded at startup, and PROJCTX_* environment variables override
// individual keys.
package file
