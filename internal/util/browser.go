package util

import (
	"errors"
	"os/exec"
	"runtime"
)

// browserCommands 各平台打开网址的候选命令，按顺序尝试
func browserCommands(goos, url string) [][]string {
	switch goos {
	case "windows":
		// explorer 兜底
		return [][]string{
			{"rundll32", "url.dll,FileProtocolHandler", url},
			{"explorer", url},
		}
	case "darwin":
		return [][]string{{"open", url}}
	default:
		return [][]string{
			{"xdg-open", url},
			{"sensible-browser", url},
			{"google-chrome", url},
			{"firefox", url},
		}
	}
}

// OpenBrowser 用默认浏览器打开网址，失败时依次尝试备选命令
func OpenBrowser(url string) error {
	var lastErr error
	for _, args := range browserCommands(runtime.GOOS, url) {
		if err := exec.Command(args[0], args[1:]...).Start(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr == nil {
		lastErr = errors.New("no browser command available")
	}
	return lastErr
}
