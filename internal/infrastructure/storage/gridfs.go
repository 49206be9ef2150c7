package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GridFSBackend stores objects in a MongoDB GridFS bucket, one file per key.
type GridFSBackend struct {
	database   *mongo.Database
	bucketName string
}

// NewMongoClient connects and pings the MongoDB deployment behind uri
func NewMongoClient(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client, nil
}

func NewGridFSBackend(database *mongo.Database, bucketName string) *GridFSBackend {
	return &GridFSBackend{database: database, bucketName: bucketName}
}

// bucket is opened per call; deadlines are bucket state and must not leak between requests.
func (b *GridFSBackend) bucket(ctx context.Context) (*gridfs.Bucket, error) {
	bucket, err := gridfs.NewBucket(b.database, options.GridFSBucket().SetName(b.bucketName))
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := bucket.SetWriteDeadline(deadline); err != nil {
			return nil, err
		}
		if err := bucket.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
	}
	return bucket, nil
}

func (b *GridFSBackend) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	bucket, err := b.bucket(ctx)
	if err != nil {
		return "", err
	}

	opts := options.GridFSUpload().SetMetadata(bson.D{
		{Key: "contentType", Value: contentType},
		{Key: "namespace", Value: Namespace(key)},
	})
	if _, err := bucket.UploadFromStream(key, bytes.NewReader(data), opts); err != nil {
		return "", fmt.Errorf("gridfs upload failed: %w", err)
	}

	return key, nil
}

func (b *GridFSBackend) Get(ctx context.Context, key string) (*Object, error) {
	bucket, err := b.bucket(ctx)
	if err != nil {
		return nil, err
	}

	stream, err := bucket.OpenDownloadStreamByName(key)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("gridfs download failed: %w", err)
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("gridfs read failed: %w", err)
	}

	obj := &Object{Data: data}
	if file := stream.GetFile(); file != nil && file.Metadata != nil {
		if value, err := file.Metadata.LookupErr("contentType"); err == nil {
			obj.ContentType, _ = value.StringValueOK()
		}
	}
	return obj, nil
}
