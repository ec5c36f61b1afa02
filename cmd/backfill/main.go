package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/DanielHu2018/PoolParty/internal/config"
	"github.com/DanielHu2018/PoolParty/internal/eta"
	"github.com/DanielHu2018/PoolParty/internal/geo"
	"github.com/DanielHu2018/PoolParty/internal/models"
	"github.com/DanielHu2018/PoolParty/internal/storage"
)

// backfill walks every stored pool, geocodes endpoints that never resolved
// and fills in missing ETAs. With -diagnose it instead prints the pools whose
// persisted ETA exceeds the flag threshold, together with what each provider
// says about them, and changes nothing.
func main() {
	var (
		diagnose  bool
		threshold int
	)
	flag.BoolVar(&diagnose, "diagnose", false, "only report pools with suspicious ETAs")
	flag.IntVar(&threshold, "flag-threshold", 6*3600, "ETA seconds above which a pool is suspicious")
	flag.Parse()

	cfg, err := config.LoadServerConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if cfg.PGDSN == "" {
		log.Fatal("PG_DSN is required")
	}
	store, err := storage.NewPostgresStore(cfg.PGDSN)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}

	geocoder := geo.NewGeocodeGateway(cfg.MapboxToken, cfg.ORSKey)
	router := geo.NewRouteGateway(cfg.MapboxToken, cfg.ORSKey)
	etaCfg := eta.DefaultConfig()
	etaCfg.AvgSpeedMPH = cfg.AvgSpeedMPH
	svc := eta.NewService(geocoder, router, etaCfg)

	pools, err := store.ListPools()
	if err != nil {
		log.Fatalf("list pools: %v", err)
	}

	ctx := context.Background()
	if diagnose {
		runDiagnose(ctx, svc, geocoder, router, pools, threshold)
		return
	}

	for _, p := range pools {
		if p.Cancelled {
			continue
		}
		updated := svc.PrepareCoordinates(ctx, p)
		if updated {
			log.Printf("pool %s: coordinates filled in (origin=%v dest=%v)", p.ID, p.OriginCoord, p.DestCoord)
		}
		if p.ETASeconds == nil {
			if sec, source, ok := svc.ComputeETA(ctx, p); ok {
				now := time.Now().UTC()
				p.ETASeconds = &sec
				p.ETAUpdatedAt = &now
				updated = true
				log.Printf("pool %s: ETA set -> %ds via %s", p.ID, sec, source)
			} else {
				log.Printf("pool %s: no ETA available", p.ID)
			}
		}
		if updated {
			if err := store.UpdatePool(p); err != nil {
				log.Printf("pool %s: update failed: %v", p.ID, err)
			}
		}
	}
}

func runDiagnose(ctx context.Context, svc *eta.Service, geocoder *geo.GeocodeGateway, router *geo.RouteGateway, pools []*models.Pool, threshold int) {
	found := false
	for _, p := range pools {
		if p.ETASeconds == nil || *p.ETASeconds <= threshold {
			continue
		}
		found = true
		log.Printf("---")
		log.Printf("pool %s: %q stored eta=%ds", p.ID, p.Title, *p.ETASeconds)
		log.Printf(" origin %q -> %v", p.Origin, p.OriginCoord)
		log.Printf(" dest   %q -> %v", p.Destination, p.DestCoord)
		// compare what each geocoder thinks about both endpoints
		for _, side := range []struct {
			label, addr string
		}{{"origin", p.Origin}, {"dest", p.Destination}} {
			if c, ok := geocoder.GeocodeORS(ctx, side.addr); ok {
				log.Printf(" ors %s: %.5f,%.5f", side.label, c.Lat, c.Lon)
			}
			if c, ok := geocoder.GeocodeMapbox(ctx, side.addr); ok {
				log.Printf(" mapbox %s: %.5f,%.5f", side.label, c.Lat, c.Lon)
			}
			if c, ok := geocoder.GeocodeNominatim(ctx, side.addr); ok {
				log.Printf(" nominatim %s: %.5f,%.5f", side.label, c.Lat, c.Lon)
			}
		}
		if p.OriginCoord != nil && p.DestCoord != nil {
			route := router.RouteAny(ctx, []models.Coord{*p.OriginCoord, *p.DestCoord})
			log.Printf(" route_any(stored coords): %+v", route)
			if sec, source, ok := svc.ComputeETA(ctx, p); ok {
				log.Printf(" recomputed eta: %ds via %s", sec, source)
			}
		}
	}
	if !found {
		log.Printf("no pools with eta_seconds > %d", threshold)
	}
}
