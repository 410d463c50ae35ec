package main

import (
	"log"

	"leavebot/core/cmd"
	"leavebot/internal/bot"
)

func main() {
	err := cmd.Run(cmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (cmd.ConfigCarrier, error) {
			return bot.LoadConfig(path)
		},
		Bootstrap: func(cfg cmd.ConfigCarrier) (cmd.TelegramApp, error) {
			return bot.NewApp(cfg.(*bot.Config))
		},
	})
	if err != nil {
		log.Fatalf("leavebot: %v", err)
	}
}
