//go:build pixdebug

package imageutil

// boundsChecks enables coordinate validation in PixelBuffer accessors.
// Build with -tags pixdebug to turn it on.
const boundsChecks = true
