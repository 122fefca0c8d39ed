// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config carries the engine configuration family and fills it
// from the environment. Values parse leniently, anything unset or
// malformed falls back to the engine default.
package config

import (
	"strconv"

	"github.com/gobuffalo/envy"
)

// Engine defaults, used by FromEnv when the environment has no say.
const (
	DefaultFramesPerSecond = 2000
	DefaultEventPollDelay  = 50
	DefaultScreenWidth     = 800
	DefaultScreenHeight    = 600
	DefaultShaderDirectory = "./shaders"
	DefaultLogLevel        = "info"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	Time     TimeConfiguration
	Renderer RendererConfiguration

	// LogLevel names the logrus level the engine logs at
	LogLevel string
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int

	// EventPollDelay is the wait between event polls in milliseconds
	EventPollDelay int
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	ScreenWidth  uint32
	ScreenHeight uint32

	// ShaderDirectory is scanned for vertex and fragment sources
	ShaderDirectory string

	// AssetArchive points at a kar archive with engine assets.
	// Empty means only built-in assets are available.
	AssetArchive string

	// TraceCalls mirrors every driver call to the log
	TraceCalls bool
}

// FromEnv assembles a Configuration from environment variables.
func FromEnv() Configuration {
	return Configuration{
		Time: TimeConfiguration{
			FramesPerSecond: intFromEnv("GLAZE_FRAMES_PER_SECOND", DefaultFramesPerSecond),
			EventPollDelay:  intFromEnv("GLAZE_EVENT_POLL_DELAY", DefaultEventPollDelay),
		},
		Renderer: RendererConfiguration{
			ScreenWidth:     uintFromEnv("GLAZE_SCREEN_WIDTH", DefaultScreenWidth),
			ScreenHeight:    uintFromEnv("GLAZE_SCREEN_HEIGHT", DefaultScreenHeight),
			ShaderDirectory: envy.Get("GLAZE_SHADER_DIRECTORY", DefaultShaderDirectory),
			AssetArchive:    envy.Get("GLAZE_ASSET_ARCHIVE", ""),
			TraceCalls:      boolFromEnv("GLAZE_TRACE_CALLS", false),
		},
		LogLevel: envy.Get("GLAZE_LOG_LEVEL", DefaultLogLevel),
	}
}

func intFromEnv(key string, fallback int) int {
	value, err := strconv.Atoi(envy.Get(key, ""))
	if err != nil {
		return fallback
	}
	return value
}

func uintFromEnv(key string, fallback uint32) uint32 {
	value, err := strconv.ParseUint(envy.Get(key, ""), 10, 32)
	if err != nil {
		return fallback
	}
	return uint32(value)
}

func boolFromEnv(key string, fallback bool) bool {
	value, err := strconv.ParseBool(envy.Get(key, ""))
	if err != nil {
		return fallback
	}
	return value
}
