// Package jobs turns a dump directory (and optionally an explicit camera
// list) into per-camera extraction jobs: one video, one index file, one
// output directory each.
package jobs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Supported video file extensions (lowercase, with leading dot).
var videoExtensions = map[string]bool{
	".mkv":  true,
	".mp4":  true,
	".avi":  true,
	".m4v":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".ts":   true,
	".m2ts": true,
	".mpg":  true,
	".mpeg": true,
	".vob":  true,
	".ogv":  true,
}

// indexExt is the extension of the sibling index file that names each
// decoded frame.
const indexExt = ".txt"

// Job is one unit of work: decode VideoPath, name frames from IndexPath,
// write JPEGs into OutputDir.
type Job struct {
	ID        string // run-unique, for log correlation
	Camera    string
	VideoPath string
	IndexPath string
	OutputDir string
}

// Skip records a video file that was found but not turned into a job.
type Skip struct {
	Path   string
	Reason string
}

// Resolve builds one job per named camera (manifest mode). For each camera
// it looks for <videoDir>/<camera>.<ext> across the known video extensions
// and for a sibling <camera>.txt index. Cameras that cannot be resolved
// produce one error each; jobs for the remaining cameras are still returned
// so a single bad name does not sink the whole run.
func Resolve(videoDir, outDir string, cameras []string) ([]Job, []error) {
	var js []Job
	var errs []error
	for _, cam := range cameras {
		video, err := findVideo(videoDir, cam)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		index := filepath.Join(videoDir, cam+indexExt)
		if _, err := os.Stat(index); err != nil {
			errs = append(errs, fmt.Errorf("camera %s: index file: %w", cam, err))
			continue
		}
		js = append(js, newJob(cam, video, index, outDir))
	}
	sortJobs(js)
	return js, errs
}

// findVideo returns the first <dir>/<camera>.<ext> that exists, trying
// extensions in sorted order so the pick is deterministic when a camera was
// dumped in more than one container.
func findVideo(dir, camera string) (string, error) {
	exts := make([]string, 0, len(videoExtensions))
	for ext := range videoExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	for _, ext := range exts {
		path := filepath.Join(dir, camera+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("camera %s: no video file in %s", camera, dir)
}

// Discover walks videoDir and builds a job for every video file that has a
// sibling index file (discovery mode). Hidden directories are pruned. Video
// files without an index, and later duplicates of an already-seen camera
// name, are reported in skipped rather than silently dropped.
func Discover(videoDir, outDir string) (js []Job, skipped []Skip, err error) {
	var videos []string
	err = filepath.WalkDir(videoDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != videoDir {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if videoExtensions[ext] {
			videos = append(videos, path)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	sort.Strings(videos)

	seen := map[string]string{} // camera -> video path that claimed it
	for _, video := range videos {
		camera := strings.TrimSuffix(filepath.Base(video), filepath.Ext(video))
		if prev, ok := seen[camera]; ok {
			skipped = append(skipped, Skip{
				Path:   video,
				Reason: fmt.Sprintf("camera %s already claimed by %s", camera, prev),
			})
			continue
		}
		index := strings.TrimSuffix(video, filepath.Ext(video)) + indexExt
		if _, err := os.Stat(index); err != nil {
			skipped = append(skipped, Skip{Path: video, Reason: "no sibling index file"})
			continue
		}
		seen[camera] = video
		js = append(js, newJob(camera, video, index, outDir))
	}
	sortJobs(js)
	return js, skipped, nil
}

func newJob(camera, video, index, outDir string) Job {
	return Job{
		ID:        uuid.NewString(),
		Camera:    camera,
		VideoPath: video,
		IndexPath: index,
		OutputDir: filepath.Join(outDir, camera),
	}
}

func sortJobs(js []Job) {
	sort.Slice(js, func(i, j int) bool { return js[i].Camera < js[j].Camera })
}
