package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/kamusis/skills-sync/internal/archive"
	"github.com/kamusis/skills-sync/internal/config"
	"github.com/kamusis/skills-sync/internal/digest"
	"github.com/kamusis/skills-sync/internal/fsutil"
	"github.com/kamusis/skills-sync/internal/syncerr"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type downloadOptions struct {
	code   string
	dir    string
	dryRun bool
}

func newDownloadCmd(g *globalOptions) *cobra.Command {
	o := &downloadOptions{}
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the skills stored under a business code and extract them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := g.load(cmd)
			if err != nil {
				return err
			}
			return runDownload(cmd, a, o)
		},
	}
	cmd.Flags().StringVarP(&o.code, "code", "c", "", "Business code printed by upload")
	cmd.Flags().StringVarP(&o.dir, "dir", "d", "", "Extraction root (default: download_dir from config, i.e. home)")
	cmd.Flags().BoolVar(&o.dryRun, "dry-run", false, "List archive entries without writing anything")
	_ = cmd.MarkFlagRequired("code")
	return cmd
}

func runDownload(cmd *cobra.Command, a *app, o *downloadOptions) error {
	code := strings.TrimSpace(o.code)
	if code == "" {
		return syncerr.InvalidInput("--code", errors.New("business code is empty"))
	}
	target, err := a.target(o.dir)
	if err != nil {
		return err
	}

	a.out.Section("Download / 下载")
	data, err := a.client().Download(a.context(cmd), code, a.out.Progress("Downloading / 下载中"))
	if err != nil {
		return err
	}
	a.out.Info(fmt.Sprintf("Archive / 压缩包: %s", humanize.IBytes(uint64(len(data)))))
	a.out.Info("SHA-256: " + digest.Bytes(data))

	if o.dryRun {
		names, err := archive.Entries(data)
		if err != nil {
			return err
		}
		a.out.Section("Archive contents / 压缩包内容")
		for _, n := range names {
			a.out.Info("  " + n)
		}
		a.out.Success(fmt.Sprintf("Dry run / 试运行: %d file(s) would be extracted to %s", len(names), target))
		return nil
	}

	release, err := fsutil.AcquireSyncLock(a.cfg.Timeout)
	if err != nil {
		return syncerr.IO("lock", "sync.lock", err)
	}
	defer release()

	a.out.Section("Extract / 解压")
	written, err := archive.Unpack(data, target,
		archive.WithEntryObserver(a.out.Step),
		archive.WithLogger(a.log),
	)
	if err != nil {
		if len(written) > 0 {
			a.out.Warning(fmt.Sprintf("%d file(s) were extracted before the failure / 失败前已解压 %d 个文件", len(written), len(written)))
		}
		return err
	}
	a.out.Success(fmt.Sprintf("Extracted %d file(s) to %s / 已解压到 %s", len(written), target, target))
	return nil
}

// target resolves the extraction root: --dir, then download_dir, then home.
func (a *app) target(dir string) (string, error) {
	t := dir
	if t == "" {
		t = a.cfg.DownloadDir
	}
	if t == "" {
		t = a.home
	}
	expanded, err := config.ExpandPath(t)
	if err != nil {
		return "", syncerr.InvalidInput("--dir", err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", syncerr.IO("resolve", expanded, err)
	}
	return abs, nil
}
