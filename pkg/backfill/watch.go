package backfill

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"k8s.io/klog/v2"
)

// Watch tags JPEG files as they are created or written below c.InDir, until ctx is done.
// Files that already carry intrinsics are skipped, so in-place writes do not retrigger.
func (p *Processor) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new watcher: %w", err)
	}
	defer w.Close()

	root := filepath.Clean(p.c.InDir)
	if err := p.watchTree(w, root, root, false); err != nil {
		return err
	}

	klog.Infof("watching %s ...", root)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			klog.V(1).Infof("event: %s", event)
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if p.skip(root, event.Name) {
				continue
			}

			// fsnotify is not recursive; new directories need their own watch.
			if event.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := p.watchTree(w, root, event.Name, true); err != nil {
						klog.Errorf("watch %s: %v", event.Name, err)
					}
					continue
				}
			}

			if !isJPEG(event.Name) {
				continue
			}
			o := p.process(event.Name, false)
			klog.V(1).Infof("%s: %s", event.Name, o)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			klog.Errorf("watch error: %v", err)
		}
	}
}

// watchTree adds dir and its subdirectories to w. With tag set, JPEGs already
// present are processed too, since files moved in with a directory raise no events.
func (p *Processor) watchTree(w *fsnotify.Watcher, root, dir string, tag bool) error {
	return p.walk(root, dir, func(path string, isDir bool) error {
		if isDir {
			klog.V(1).Infof("watching %s", path)
			if err := w.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
			return nil
		}
		if tag && isJPEG(path) {
			o := p.process(path, false)
			klog.V(1).Infof("%s: %s", path, o)
		}
		return nil
	})
}
