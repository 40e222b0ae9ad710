package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"strings"

	"polyring/internal/config"
	"polyring/internal/logging"
	"polyring/internal/model"
	"polyring/internal/overlay"
	"polyring/internal/postgres"
	"polyring/internal/service/polygon"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"github.com/qedus/osmpbf"
)

// defaultTagKeys select closed ways that describe an area
var defaultTagKeys = []string{"building", "landuse", "leisure"}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: osm-polygon-importer <path-to-osm.pbf> [tag,keys]")
	}
	osmFile := os.Args[1]

	tagKeys := defaultTagKeys
	if len(os.Args) > 2 {
		tagKeys = strings.Split(os.Args[2], ",")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, closer, err := logging.Setup(cfg.LogFile, cfg.LogVerbosity)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer closer.Close()
	logger = logger.WithName("osm-importer")

	db, err := postgres.Open(cfg.DBUrl, logger.WithName("postgres"))
	if err != nil {
		logger.Error(err, "Failed to connect to PostgreSQL")
		os.Exit(1)
	}
	defer postgres.Close(db)

	svc := polygon.NewService(
		postgres.NewPolygonRepository(db, logger.WithName("repository")),
		nil,
		polygon.WithLogger(logger.WithName("polygons")),
		polygon.WithStorePrecision(cfg.StorePrecision),
	)

	created, err := importFile(osmFile, tagKeys, svc, logger)
	if err != nil {
		logger.Error(err, "Import failed", "file", osmFile)
		os.Exit(1)
	}

	if err := svc.FlushToStore(context.Background()); err != nil {
		logger.Error(err, "Failed to save polygons")
		os.Exit(1)
	}
	logger.Info("Import complete", "polygons", created)
}

func newDecoder(f *os.File) (*osmpbf.Decoder, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "rewind osm file")
	}
	decoder := osmpbf.NewDecoder(f)
	decoder.SetBufferSize(osmpbf.MaxBlobSize)
	if err := decoder.Start(runtime.GOMAXPROCS(-1)); err != nil {
		return nil, errors.Wrap(err, "start decoder")
	}
	return decoder, nil
}

// importFile reads the file twice: node coordinates first, then the
// closed ways carrying one of tagKeys.
func importFile(path string, tagKeys []string, svc *polygon.PolygonService, logger logr.Logger) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "open osm file")
	}
	defer f.Close()

	// Phase 1: cache node coordinates
	logger.Info("Phase 1: caching node coordinates", "file", path)
	decoder, err := newDecoder(f)
	if err != nil {
		return 0, err
	}

	nodes := make(map[int64]model.LatLng)
	for {
		object, err := decoder.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, errors.Wrap(err, "decode nodes")
		}
		if node, ok := object.(*osmpbf.Node); ok {
			nodes[node.ID] = model.LatLng{Lat: node.Lat, Lng: node.Lon}
		}
	}
	logger.Info("Cached nodes", "count", len(nodes))

	// Phase 2: collect closed ways
	logger.Info("Phase 2: collecting area ways", "tags", tagKeys)
	decoder, err = newDecoder(f)
	if err != nil {
		return 0, err
	}

	created, skipped := 0, 0
	for {
		object, err := decoder.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return created, errors.Wrap(err, "decode ways")
		}

		way, ok := object.(*osmpbf.Way)
		if !ok {
			continue
		}
		kind, ok := areaKind(way.Tags, tagKeys)
		if !ok {
			continue
		}

		ring, ok := wayRing(way.NodeIDs, nodes)
		if !ok {
			skipped++
			continue
		}

		name := way.Tags["name"]
		if name == "" {
			name = fmt.Sprintf("Unnamed %s %d", kind, way.ID)
		}
		if _, err := svc.Create(name, ring, overlay.DefaultOptions()); err != nil {
			logger.V(1).Info("Skipping way", "id", way.ID, "reason", err.Error())
			skipped++
			continue
		}
		created++

		if created%10000 == 0 {
			logger.Info("Progress", "polygons", created)
		}
	}

	logger.Info("Collected area ways", "created", created, "skipped", skipped)
	return created, nil
}

// areaKind returns the first of keys present in tags with its value
func areaKind(tags map[string]string, keys []string) (string, bool) {
	for _, k := range keys {
		if v, ok := tags[k]; ok {
			return k + "=" + v, true
		}
	}
	return "", false
}

// wayRing resolves node ids to coordinates. The way must be closed and every
// node known; the repeated closing node is dropped.
func wayRing(ids []int64, nodes map[int64]model.LatLng) ([]model.LatLng, bool) {
	if len(ids) < 4 || ids[0] != ids[len(ids)-1] {
		return nil, false
	}

	ring := make([]model.LatLng, 0, len(ids)-1)
	for _, id := range ids[:len(ids)-1] {
		p, ok := nodes[id]
		if !ok {
			return nil, false
		}
		ring = append(ring, p)
	}
	return ring, true
}
