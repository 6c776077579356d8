// Package file keeps settings and prompts on disk under the config
// directory: config.toml for settings, prompts/ for template overrides and
// the reasoning chain.
package file
