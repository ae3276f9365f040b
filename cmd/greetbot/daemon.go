package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
)

const launchdLabel = "com.greetbot.bot"

func installDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install greetbot as a user service (launchd/systemd)",
		Long:  "Writes a service file so greetbot runs in the background and starts on login.",
		RunE: func(cmd *cobra.Command, args []string) error {
			execPath, err := os.Executable()
			if err != nil {
				return fmt.Errorf("cannot determine executable path: %w", err)
			}
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("cannot determine home directory: %w", err)
			}
			cfgPath := resolveConfigPath()

			switch runtime.GOOS {
			case "darwin":
				return installLaunchd(home, execPath, cfgPath)
			case "linux":
				return installSystemd(home, execPath, cfgPath)
			default:
				return fmt.Errorf("unsupported OS: %s (supported: darwin, linux)", runtime.GOOS)
			}
		},
	}
}

func uninstallDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the greetbot user service",
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("cannot determine home directory: %w", err)
			}

			var path string
			switch runtime.GOOS {
			case "darwin":
				path = launchdPlistPath(home)
			case "linux":
				path = systemdUnitPath(home)
			default:
				return fmt.Errorf("unsupported OS: %s", runtime.GOOS)
			}

			if err := os.Remove(path); err != nil {
				if os.IsNotExist(err) {
					fmt.Printf("No service installed at %s\n", path)
					return nil
				}
				return fmt.Errorf("remove service file: %w", err)
			}
			fmt.Printf("Service removed: %s\n", path)
			return nil
		},
	}
}

func launchdPlistPath(home string) string {
	return filepath.Join(home, "Library", "LaunchAgents", launchdLabel+".plist")
}

func systemdUnitPath(home string) string {
	return filepath.Join(home, ".config", "systemd", "user", "greetbot.service")
}

func installLaunchd(home, execPath, cfgPath string) error {
	logDir := filepath.Join(home, ".greetbot", "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	plist := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>%s</string>
    <key>ProgramArguments</key>
    <array>
        <string>%s</string>
        <string>run</string>
        <string>--config</string>
        <string>%s</string>
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <true/>
    <key>StandardOutPath</key>
    <string>%s</string>
    <key>StandardErrorPath</key>
    <string>%s</string>
</dict>
</plist>
`, launchdLabel, execPath, cfgPath,
		filepath.Join(logDir, "greetbot.log"),
		filepath.Join(logDir, "greetbot-error.log"))

	path := launchdPlistPath(home)
	if err := writeService(path, plist); err != nil {
		return err
	}
	fmt.Printf("Service installed: %s\n", path)
	fmt.Printf("To start: launchctl load %s\n", path)
	fmt.Printf("To stop:  launchctl unload %s\n", path)
	return nil
}

func installSystemd(home, execPath, cfgPath string) error {
	// TELEGRAM_BOT_TOKEN comes from the environment; systemd user
	// units do not inherit the login shell, so the token belongs in
	// the config file or a drop-in, not in shell exports.
	unit := fmt.Sprintf(`[Unit]
Description=greetbot greeting bot
After=network-online.target

[Service]
Type=simple
ExecStart=%s run --config %s
Restart=on-failure
RestartSec=5

[Install]
WantedBy=default.target
`, execPath, cfgPath)

	path := systemdUnitPath(home)
	if err := writeService(path, unit); err != nil {
		return err
	}
	fmt.Printf("Service installed: %s\n", path)
	fmt.Printf("To start:  systemctl --user start greetbot\n")
	fmt.Printf("To enable: systemctl --user enable greetbot\n")
	fmt.Printf("To stop:   systemctl --user stop greetbot\n")
	return nil
}

func writeService(path, contents string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create service directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		return fmt.Errorf("write service file: %w", err)
	}
	return nil
}
