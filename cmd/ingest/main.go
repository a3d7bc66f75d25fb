package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"filmly/internal/catalog"
	"filmly/internal/config"
	"filmly/internal/plattform"
	"filmly/internal/sequence"
	"filmly/pkg/styles"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const batchSize = 10000

// ingest loads the MovieLens reference files into MongoDB: movies.csv merged
// with links.csv into the movies collection, optionally ratings.csv into the
// ratings collection, then seeds the mlId counter past the highest loaded id.
func main() {
	moviesPath := flag.String("movies", "data/movies.csv", "path to movies.csv")
	linksPath := flag.String("links", "data/links.csv", "path to links.csv")
	ratingsPath := flag.String("ratings", "", "path to ratings.csv (optional)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancel()

	client, err := plattform.NewClient(ctx, cfg.Mongo.URI)
	if err != nil {
		log.Fatal(styles.SprintfS("error", "[ingest] MongoDB: %v", err))
	}
	defer client.Disconnect(context.Background())

	db := cfg.Mongo.Database
	moviesColl := client.GetCollection(db, "movies")
	ratingsColl := client.GetCollection(db, "ratings")

	ensureIndexes(ctx, moviesColl, ratingsColl)

	links, err := catalog.LoadLinks(*linksPath)
	if err != nil {
		styles.PrintFS("error", "[ingest] links.csv not loaded (%v), tmdb ids will be empty", err)
		links = catalog.NewLinks(nil)
	}

	repo := catalog.NewMongoRepository(moviesColl)
	maxID, total, err := loadMovies(ctx, repo, links, *moviesPath)
	if err != nil {
		log.Fatal(styles.SprintfS("error", "[ingest] movies: %v", err))
	}
	styles.PrintFS("success", "[ingest] %d movies upserted (max mlId %d)", total, maxID)

	if *ratingsPath != "" {
		n, err := loadRatings(ctx, ratingsColl, *ratingsPath)
		if err != nil {
			log.Fatal(styles.SprintfS("error", "[ingest] ratings: %v", err))
		}
		styles.PrintFS("success", "[ingest] %d ratings upserted", n)
	}

	// Seed the allocator so newly discovered movies get ids above the dataset.
	counters := sequence.NewMongoCounterStore(client.GetCollection(db, "counters"))
	alloc := sequence.New(counters)
	err = alloc.EnsureInitialized(ctx, sequence.MovieIDKey, func(context.Context) (int64, error) {
		return maxID + 1, nil
	})
	if err != nil {
		log.Fatal(styles.SprintfS("error", "[ingest] seeding counter: %v", err))
	}
	styles.PrintFS("info", "[ingest] mlId counter seeded at %d", maxID+1)
}

func ensureIndexes(ctx context.Context, movies, ratings *mongo.Collection) {
	_, err := movies.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "mlId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "tmdbId", Value: 1}}},
	})
	if err != nil {
		log.Printf("[ingest] movie index warning: %v", err)
	}
	_, err = ratings.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user", Value: 1}, {Key: "movieId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		log.Printf("[ingest] rating index warning: %v", err)
	}
}

func loadMovies(ctx context.Context, repo *catalog.MongoRepository, links *catalog.Links, path string) (maxID, total int64, err error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	if _, err := reader.Read(); err != nil {
		return 0, 0, err
	}

	batch := make([]catalog.Movie, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := repo.BulkUpsert(ctx, batch); err != nil {
			return err
		}
		total += int64(len(batch))
		batch = batch[:0]
		return nil
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, 0, err
		}
		if len(record) < 3 {
			continue
		}

		id, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			continue
		}
		if id > maxID {
			maxID = id
		}

		m := catalog.Movie{
			MlID:   id,
			Title:  record[1],
			Genres: strings.Split(record[2], "|"),
		}
		if tmdb, ok := links.ToTmdb(id); ok {
			m.TmdbID = tmdb
		}

		batch = append(batch, m)
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return 0, 0, err
			}
			styles.PrintFS("info", "[ingest] %d movies so far...", total)
		}
	}

	return maxID, total, flush()
}

func loadRatings(ctx context.Context, coll *mongo.Collection, path string) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	if _, err := reader.Read(); err != nil {
		return 0, err
	}

	var total int64
	batch := make([]mongo.WriteModel, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		_, err := coll.BulkWrite(ctx, batch, options.BulkWrite().SetOrdered(false))
		if err != nil {
			return err
		}
		total += int64(len(batch))
		batch = batch[:0]
		return nil
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		if len(record) < 3 || record[0] == "" || record[1] == "" || record[2] == "" {
			continue
		}

		user, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			continue
		}
		movie, err := strconv.ParseInt(record[1], 10, 64)
		if err != nil {
			continue
		}
		score, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			continue
		}

		// MovieLens scores are 0.5-5; the API stores 1-10 halves.
		doc := bson.M{"user": user, "movieId": movie, "score": score * 2}
		batch = append(batch, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"user": user, "movieId": movie}).
			SetUpdate(bson.M{"$set": doc}).
			SetUpsert(true))

		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return 0, err
			}
			styles.PrintFS("info", "[ingest] %d ratings so far...", total)
		}
	}

	return total, flush()
}
