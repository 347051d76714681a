package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"

	"github.com/lepinkainen/link-preview/configs"
	"github.com/lepinkainen/link-preview/internal/config"
	"github.com/lepinkainen/link-preview/pkg/content"
	"github.com/lepinkainen/link-preview/pkg/filesystem"
	"github.com/lepinkainen/link-preview/pkg/frontmatter"
	"github.com/lepinkainen/link-preview/pkg/hashnode"
)

// listPosts prints the publication's posts, or writes them as MDX files when outDir is set
func listPosts(ctx context.Context, cfg *config.Config, slug, outDir string) error {
	client := hashnode.NewClient(cfg.Hashnode.Host, hashnode.WithEndpoint(cfg.Hashnode.Endpoint))

	var posts []hashnode.Post
	if slug != "" {
		post, err := client.Post(ctx, slug)
		if err != nil {
			return err
		}
		posts = []hashnode.Post{*post}
	} else {
		var err error
		if posts, err = client.Posts(ctx); err != nil {
			return err
		}
	}

	if outDir == "" {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, p := range posts {
			fm := frontmatter.FromHashnode(p, client.Host())
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", fm.PublishedAt.Format("2006-01-02"), fm.Type, p.Slug, fm.Title)
		}
		return w.Flush()
	}

	return writePosts(ctx, client, posts, outDir, cfg.Fetch.Concurrency)
}

// writePosts fetches each post's markdown and writes it as slug.mdx under dir
func writePosts(ctx context.Context, client *hashnode.Client, posts []hashnode.Post, dir string, concurrency int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, p := range posts {
		g.Go(func() error {
			post := &p
			if post.Content == nil || post.Content.Markdown == "" {
				full, err := client.Post(gctx, p.Slug)
				if err != nil {
					return fmt.Errorf("failed to fetch %s: %w", p.Slug, err)
				}
				post = full
			}

			data, err := renderPost(*post, client.Host())
			if err != nil {
				return fmt.Errorf("failed to render %s: %w", p.Slug, err)
			}

			path := filepath.Join(dir, p.Slug+".mdx")
			if err := filesystem.WriteFileAtomic(path, data, 0o644); err != nil {
				return err
			}
			slog.Info("Wrote post", "path", path)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Printf("Wrote %d posts to %s\n", len(posts), dir)
	return nil
}

// renderPost assembles front matter, component imports and the converted body
func renderPost(post hashnode.Post, host string) ([]byte, error) {
	fm := frontmatter.FromHashnode(post, host)
	if err := frontmatter.Validate(fm); err != nil {
		return nil, err
	}

	header, err := frontmatter.Marshal(fm)
	if err != nil {
		return nil, err
	}

	var markdown string
	if post.Content != nil {
		markdown = post.Content.Markdown
	}
	body := content.ConvertHashnodeMarkdown(markdown, host)

	out := append(header, '\n')
	out = append(out, content.ImportBlock(content.UsedComponents(body))...)
	out = append(out, body...)
	return out, nil
}

// validateFiles checks the front matter of each file and reports every failure
func validateFiles(files []string) error {
	failed := 0
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err == nil {
			_, _, err = frontmatter.Parse(data)
		}
		if err != nil {
			failed++
			fmt.Printf("FAIL %s: %v\n", path, err)
			continue
		}
		fmt.Printf("ok   %s\n", path)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files have invalid front matter", failed, len(files))
	}
	return nil
}

// writeDefaultConfig writes the embedded example configuration to path
func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to check %s: %w", path, err)
	}

	data, err := configs.EmbeddedConfigs.ReadFile(configs.ExampleConfig)
	if err != nil {
		return fmt.Errorf("failed to read embedded config: %w", err)
	}

	if err := filesystem.WriteFileAtomic(path, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
