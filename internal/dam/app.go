package dam

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// NewApp builds the command-line application.
func NewApp(version string) *cli.App {
	return &cli.App{
		Name:    "dam",
		Usage:   "ダムの貯水率を取得します",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "YAML config file (URLs, user agents, timeout, workers)",
			},
			&cli.StringFlag{
				Name:  "dams",
				Usage: "YAML dam table replacing the built-in one",
			},
			&cli.StringFlag{
				Name:  "format",
				Value: "text",
				Usage: "Output format: text, json, yaml",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Suppress progress messages and non-error logs",
			},
		},
		Action: func(c *cli.Context) error {
			fmt.Fprintln(c.App.ErrWriter, "コマンドを指定してください。例: dam get 矢木沢")
			return cli.ShowAppHelp(c)
		},
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "ダム名を指定して貯水率を取得",
				ArgsUsage: "NAME [NAME...]",
				Action:    GetAction,
			},
			{
				Name:   "all",
				Usage:  "9ダム合計の貯水率を取得",
				Action: AllAction,
			},
			{
				Name:   "list",
				Usage:  "対応しているダム一覧を表示",
				Action: ListAction,
			},
		},
	}
}
