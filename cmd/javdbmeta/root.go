package main

import (
	"github.com/spf13/cobra"
)

// rootFlags 是所有子命令共享的入口参数。
type rootFlags struct {
	config  string
	verbose bool
}

func newRootCommand() *cobra.Command {
	var flags rootFlags

	rootCmd := &cobra.Command{
		Use:           "javdbmeta",
		Short:         "从 JavDB 抓取影片元数据",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "配置文件路径（默认读取当前目录下的 javdbmeta.json）")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "输出 debug 日志")

	rootCmd.AddCommand(newGetCommand(&flags))
	return rootCmd
}
