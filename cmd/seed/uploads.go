package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/stockcast/backend-go/internal/storage"
)

const uploadsPrefix = "sales-uploads/"

func newStorageClient(c *cli.Context) (*storage.S3Client, error) {
	return storage.NewS3Client(c.Context, storage.S3Config{
		Endpoint:  c.String("storage-endpoint"),
		AccessKey: c.String("storage-access-key"),
		SecretKey: c.String("storage-secret-key"),
		Bucket:    c.String("storage-bucket"),
		Region:    c.String("storage-region"),
		UseSSL:    c.Bool("storage-use-ssl"),
	})
}

func runUploads(c *cli.Context) error {
	client, err := newStorageClient(c)
	if err != nil {
		return err
	}

	prefix := c.String("prefix")
	objects, err := client.ListObjects(c.Context, prefix)
	if err != nil {
		return fmt.Errorf("failed to list uploads for prefix %s: %w", prefix, err)
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })

	for _, obj := range objects {
		fmt.Printf("%s\t%d\n", obj.Key, obj.Size)
	}

	destDir := c.String("download-dir")
	if destDir == "" {
		return nil
	}

	paths, err := downloadObjects(c.Context, client, prefix, objects, destDir)
	if err != nil {
		return err
	}
	log.Printf("Downloaded %d uploads into %s\n", len(paths), destDir)
	return nil
}

func downloadObjects(ctx context.Context, client storage.ObjectStorage, prefix string, objects []storage.ObjectInfo, destDir string) ([]string, error) {
	localPaths := make([]string, 0, len(objects))
	for _, obj := range objects {
		localPath := filepath.Join(destDir, objectRelativePath(prefix, obj.Key))
		if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to prepare directory for %s: %w", localPath, err)
		}
		if err := client.DownloadObject(ctx, obj.Key, localPath); err != nil {
			return nil, err
		}
		localPaths = append(localPaths, localPath)
	}
	return localPaths, nil
}

// objectRelativePath strips prefix from key, keeping the date folders of archived uploads.
func objectRelativePath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	prefixTrimmed := strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	rel := strings.TrimPrefix(key, prefixTrimmed+"/")
	if rel == "" {
		return filepath.Base(key)
	}
	return rel
}
