//go:build !pixdebug

package imageutil

const boundsChecks = false
