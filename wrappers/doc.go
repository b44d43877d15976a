// Package wrappers implements environment wrappers for gymwrap
// environments, following the wrappers in OpenAI's Gym: Atari frame
// preprocessing and frame stacking, time limits, action clipping and
// rescaling, and observation flattening and rendering.
package wrappers
