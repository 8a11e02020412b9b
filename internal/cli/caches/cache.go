package caches

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/julianstephens/sovereign/internal/cache"
	"github.com/julianstephens/sovereign/internal/cli"
)

type CacheCmd struct {
	Warm  CacheWarmCmd  `cmd:"" help:"Load likes and comment counts from the database into the cache."`
	Flush CacheFlushCmd `cmd:"" help:"Delete cached entries matching a pattern."`
	Stats CacheStatsCmd `cmd:"" help:"Show cache reachability and operation counters."`
}

type CacheWarmCmd struct{}

func (c *CacheWarmCmd) Run(ctx *cli.Context) error {
	stats, err := ctx.Counters.Warm(context.Background())
	if err != nil {
		return err
	}
	cli.Success(ctx.Writer(), "Warmed %d likes across %d posts", stats.Likes, stats.Posts)
	return nil
}

type CacheFlushCmd struct {
	Pattern string `help:"Glob over cache keys, e.g. 'post:*:likes' or 'streak:*'." default:"*"`
}

func (c *CacheFlushCmd) Run(ctx *cli.Context) error {
	n, err := ctx.Flush(context.Background(), c.Pattern)
	if err != nil {
		return err
	}
	cli.Success(ctx.Writer(), "Flushed %d entries matching %q", n, c.Pattern)
	return nil
}

type CacheStatsCmd struct{}

func (c *CacheStatsCmd) Run(ctx *cli.Context) error {
	out := ctx.Writer()
	backend := ctx.Config.Cache.Backend

	if err := ctx.Cache.Ping(context.Background()); err != nil {
		if errors.Is(err, cache.ErrDisabled) {
			cli.Warning(out, "Cache disabled")
		} else {
			cli.Warning(out, "Cache unreachable (%s): %v", backend, err)
		}
	} else {
		cli.Success(out, "Cache reachable (%s)", backend)
	}

	families, err := ctx.Registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	var rows [][]string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			op := ""
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "op" {
					op = lp.GetValue()
				}
			}
			value := m.GetCounter().GetValue()
			rows = append(rows, []string{mf.GetName(), op, strconv.FormatFloat(value, 'f', 0, 64)})
		}
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "No cache operations recorded.")
		return nil
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i][0] != rows[j][0] {
			return rows[i][0] < rows[j][0]
		}
		return rows[i][1] < rows[j][1]
	})
	cli.Table(out, []string{"METRIC", "OP", "COUNT"}, rows)
	return nil
}
