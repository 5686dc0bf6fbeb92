package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// MongoStore maps the notification tree onto one document per user.
// Path /notifications/{uid}/a/b is field a.b of the document with _id uid.
type MongoStore struct {
	collection *mongo.Collection
}

var _ Store = (*MongoStore)(nil)

// NewMongoStore creates a new MongoStore
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{collection: db.Collection("notifications")}
}

// locate splits a path into the document id and the dotted field inside it
func (s *MongoStore) locate(path string) (id string, field []string, err error) {
	segments := splitPath(path)
	if len(segments) < 2 || "/"+segments[0] != rootPath {
		return "", nil, fmt.Errorf("path %q is outside %s/{userId}", path, rootPath)
	}
	for _, seg := range segments[1:] {
		if !validKey(seg) {
			return "", nil, fmt.Errorf("invalid key %q in path %q", seg, path)
		}
	}
	return segments[1], segments[2:], nil
}

func (s *MongoStore) Get(ctx context.Context, path string, dest interface{}) (bool, error) {
	id, field, err := s.locate(path)
	if err != nil {
		return false, err
	}

	opts := options.FindOne()
	if len(field) > 0 {
		opts.SetProjection(bson.M{strings.Join(field, "."): 1, "_id": 0})
	} else {
		opts.SetProjection(bson.M{"_id": 0})
	}

	raw, err := s.collection.FindOne(ctx, bson.M{"_id": id}, opts).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("mongo get %s: %w", path, err)
	}

	if len(field) == 0 {
		elems, err := raw.Elements()
		if err != nil {
			return false, err
		}
		if len(elems) == 0 {
			return false, nil
		}
		return true, bson.Unmarshal(raw, dest)
	}

	val, err := raw.LookupErr(field...)
	if err != nil {
		if errors.Is(err, bsoncore.ErrElementNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("mongo lookup %s: %w", path, err)
	}
	if val.Type == bson.TypeNull {
		return false, nil
	}
	if err := val.Unmarshal(dest); err != nil {
		return false, fmt.Errorf("mongo decode %s: %w", path, err)
	}
	return true, nil
}

func (s *MongoStore) Set(ctx context.Context, path string, value interface{}) error {
	if value == nil {
		return s.Delete(ctx, path)
	}
	id, field, err := s.locate(path)
	if err != nil {
		return err
	}
	if len(field) == 0 {
		_, err = s.collection.ReplaceOne(ctx, bson.M{"_id": id}, value, options.Replace().SetUpsert(true))
	} else {
		_, err = s.collection.UpdateOne(ctx, bson.M{"_id": id},
			bson.M{"$set": bson.M{strings.Join(field, "."): value}},
			options.Update().SetUpsert(true))
	}
	if err != nil {
		return fmt.Errorf("mongo set %s: %w", path, err)
	}
	return nil
}

func (s *MongoStore) Update(ctx context.Context, path string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	id, base, err := s.locate(path)
	if err != nil {
		return err
	}

	set, unset := bson.M{}, bson.M{}
	for key, value := range fields {
		child := append(append([]string{}, base...), splitPath(key)...)
		for _, seg := range child {
			if !validKey(seg) {
				return fmt.Errorf("invalid key %q", key)
			}
		}
		name := strings.Join(child, ".")
		if value == nil {
			unset[name] = ""
		} else {
			set[name] = value
		}
	}

	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	if _, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("mongo update %s: %w", path, err)
	}
	return nil
}

// Push uses an ObjectID hex string as key so keys sort by creation time
func (s *MongoStore) Push(ctx context.Context, path string, value interface{}) (string, error) {
	key := primitive.NewObjectID().Hex()
	if err := s.Set(ctx, path+"/"+key, value); err != nil {
		return "", err
	}
	return key, nil
}

func (s *MongoStore) Delete(ctx context.Context, path string) error {
	id, field, err := s.locate(path)
	if err != nil {
		return err
	}
	if len(field) == 0 {
		_, err = s.collection.DeleteOne(ctx, bson.M{"_id": id})
	} else {
		_, err = s.collection.UpdateOne(ctx, bson.M{"_id": id},
			bson.M{"$unset": bson.M{strings.Join(field, "."): ""}})
	}
	if err != nil {
		return fmt.Errorf("mongo delete %s: %w", path, err)
	}
	return nil
}
