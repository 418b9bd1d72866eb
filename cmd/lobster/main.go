// Lobster tooling CLI - inspects bytecode images and manages the cache.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/OIEIEIO/lobster/cache"
	"github.com/OIEIEIO/lobster/compiler"
	"github.com/OIEIEIO/lobster/manifest"
)

var log = commonlog.GetLogger("lobster.cli")

func main() {
	inspect := flag.String("inspect", "", "Dump the symbol tables of a bytecode image file")
	cachePath := flag.String("cache", "", "Cache database path (default from lobster.toml)")
	cacheList := flag.Bool("cache-list", false, "List cached bytecode images")
	evict := flag.String("evict", "", "Remove the cached image for a compilation unit")
	verbose := flag.Bool("v", false, "Verbose output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: lobster [options]\n\n")
		fmt.Fprintf(os.Stderr, "Inspects compiled bytecode images and the bytecode cache.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  lobster -inspect out.lbc     # Dump symbol tables of an image\n")
		fmt.Fprintf(os.Stderr, "  lobster -cache-list          # List cached images\n")
		fmt.Fprintf(os.Stderr, "  lobster -evict src/main.lob  # Drop one cached image\n")
	}
	flag.Parse()

	if *verbose {
		commonlog.Configure(1, nil)
	} else {
		commonlog.Configure(0, nil)
	}

	switch {
	case *inspect != "":
		if err := inspectImage(*inspect); err != nil {
			fail(err)
		}
	case *cacheList || *evict != "":
		store, err := openStore(*cachePath)
		if err != nil {
			fail(err)
		}
		defer store.Close()
		if *evict != "" {
			if err := store.Delete(*evict); err != nil {
				fail(err)
			}
			log.Infof("evicted %s", *evict)
		}
		if *cacheList {
			if err := listCache(store); err != nil {
				fail(err)
			}
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if errors.Is(err, compiler.ErrVersionMismatch) {
		fmt.Fprintf(os.Stderr, "Recompile the unit with this build to refresh the image.\n")
	}
	os.Exit(1)
}

// openStore opens the cache at the given path, falling back to the path
// configured in the nearest lobster.toml.
func openStore(path string) (*cache.Store, error) {
	if path == "" {
		m, err := manifest.FindAndLoad(".")
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, fmt.Errorf("no -cache path given and no lobster.toml found")
		}
		path = m.CachePath()
	}
	log.Debugf("opening cache at %s", path)
	return cache.Open(path)
}

func inspectImage(path string) error {
	tab, code, lines, err := compiler.ReadImageFile(path)
	if err != nil {
		return err
	}

	fmt.Printf("image %s (build %s)\n", path, compiler.BuildVersion)
	fmt.Printf("  bytecode: %d words, %d line entries, frame state: %v\n",
		len(code), len(lines), tab.UsesFrameState)

	fmt.Printf("  identifiers (%d):\n", len(tab.IdentTable))
	for _, id := range tab.IdentTable {
		fmt.Printf("    %4d  %-24s line %d\n", id.Idx, id.Name, id.Line)
	}
	fmt.Printf("  functions (%d):\n", len(tab.FunctionTable))
	for _, f := range tab.FunctionTable {
		fmt.Printf("    %4d  %-24s args %d, returns %d, bytecode @%d\n",
			f.Idx, f.Name, f.NArgs, f.RetVals, f.BytecodeStart)
	}
	fmt.Printf("  types (%d):\n", len(tab.StructTable))
	for _, st := range tab.StructTable {
		super := "-"
		if st.SuperclassIdx >= 0 {
			super = tab.ReverseLookupType(st.SuperclassIdx)
		}
		fmt.Printf("    %4d  %-24s super %s, readonly %v\n", st.Idx, st.Name, super, st.ReadOnly)
	}
	fmt.Printf("  fields (%d):\n", len(tab.FieldTable))
	for _, fld := range tab.FieldTable {
		fmt.Printf("    %4d  %s\n", fld.Idx, fld.Name)
	}
	fmt.Printf("  files (%d):\n", len(tab.FileNames))
	for i, name := range tab.FileNames {
		fmt.Printf("    %4d  %s\n", i, name)
	}
	return nil
}

func listCache(store *cache.Store) error {
	entries, err := store.List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("cache is empty")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%-40s %8d bytes  %s  %x\n",
			e.Unit, e.Size, e.CreatedAt.Format("2006-01-02 15:04:05"), e.Digest[:8])
	}
	return nil
}
