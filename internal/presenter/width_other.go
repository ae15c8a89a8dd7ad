//go:build !unix && !windows

package presenter

import "os"

func terminalWidth(*os.File) int { return 0 }
