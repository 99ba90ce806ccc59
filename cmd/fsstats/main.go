package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/xiaozhiob/subversion/internal/fs"
	"github.com/xiaozhiob/subversion/internal/fsfs"
	"github.com/xiaozhiob/subversion/internal/progress"
	"github.com/xiaozhiob/subversion/internal/util"
)

func main() {
	jsonOut := flag.String("json", "", "write the full statistics to this file as JSON")
	top := flag.Int("top", 10, "number of largest changes to print")
	useMmap := flag.Bool("mmap", true, "read revision and pack files through memory mappings")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: fsstats [flags] <repository-root>")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *jsonOut, *top, *useMmap); err != nil {
		fmt.Fprintf(os.Stderr, "fsstats: %v\n", err)
		os.Exit(1)
	}
}

func run(root, jsonOut string, top int, useMmap bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var fsys fs.FS = fs.NewOSFS()
	if useMmap {
		fsys = fs.NewMmapFS()
	}

	repo, err := fsfs.Open(fsys, root)
	if err != nil {
		return err
	}

	scanner := fsfs.NewScanner(repo)
	scanner.LargestCapacity = top

	tracker := progress.NewProgress(int(repo.Youngest)+1, "Scanning revisions", "revisions")
	scanner.Progress = func(fsfs.Revision) { tracker.Increment() }

	stats, err := scanner.Scan(ctx)
	tracker.Finish()
	if err != nil {
		return err
	}

	printSummary(repo, stats, top)

	if jsonOut != "" {
		if err := util.WriteJSON(fsys, jsonOut, stats); err != nil {
			return err
		}
		fmt.Printf("\nFull statistics written to %s\n", jsonOut)
	}
	return nil
}

func printSummary(repo *fsfs.Repository, stats *fsfs.Stats, top int) {
	fmt.Printf("\nFormat %d", repo.Format)
	if repo.ShardSize > 0 {
		fmt.Printf(", sharded by %d (packed through r%d)", repo.ShardSize, repo.MinUnpacked-1)
	} else {
		fmt.Printf(", linear layout")
	}
	if repo.Logical {
		fmt.Printf(", logical addressing")
	}
	fmt.Println()

	fmt.Printf("Revisions: %d   Changes: %d   Total size: %s\n",
		stats.RevisionCount, stats.ChangeCount, humanSize(stats.TotalSize))
	fmt.Printf("Nodes: %d files (%s), %d directories (%s)\n",
		stats.FileNodes.Count, humanSize(stats.FileNodes.Size),
		stats.DirNodes.Count, humanSize(stats.DirNodes.Size))

	fmt.Println("\nRepresentations:")
	printRepLine("file", &stats.FileReps)
	printRepLine("file prop", &stats.FilePropReps)
	printRepLine("dir", &stats.DirReps)
	printRepLine("dir prop", &stats.DirPropReps)
	printRepLine("total", &stats.TotalReps)

	if entries := stats.LargestChanges.Entries(); len(entries) > 0 {
		if len(entries) > top {
			entries = entries[:top]
		}
		fmt.Println("\nLargest changes:")
		for _, e := range entries {
			fmt.Printf("  %10s  r%-8d %s\n", humanSize(e.Size), e.Revision, e.Path)
		}
	}

	if len(stats.ByExtension) > 0 {
		fmt.Println("\nBy extension:")
		for _, ext := range topExtensions(stats, top) {
			e := stats.ByExtension[ext]
			fmt.Printf("  %-12s %8d reps  %10s\n",
				ext, e.RepHistogram.Total.Count, humanSize(e.RepHistogram.Total.Sum))
		}
	}
}

func printRepLine(label string, a *fsfs.RepAggregate) {
	fmt.Printf("  %-10s %8d (%d shared, %d refs)  on disk %10s  expanded %10s\n",
		label, a.Total.Count, a.Shared.Count, a.References,
		humanSize(a.Total.Size), humanSize(a.ExpandedSize))
}

// topExtensions ranks extensions by on-disk representation bytes.
func topExtensions(stats *fsfs.Stats, n int) []string {
	exts := util.SortedKeys(stats.ByExtension)
	sort.SliceStable(exts, func(i, j int) bool {
		return stats.ByExtension[exts[i]].RepHistogram.Total.Sum >
			stats.ByExtension[exts[j]].RepHistogram.Total.Sum
	})
	if len(exts) > n {
		exts = exts[:n]
	}
	return exts
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
