package validators

import "go.mongodb.org/mongo-driver/bson"

var ResourceValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"_id", "name", "type", "capacity", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":          bson.M{"bsonType": integer, "minimum": 1},
			"name":         bson.M{"bsonType": "string", "minLength": 1, "maxLength": 100},
			"type":         bson.M{"bsonType": "string", "minLength": 1, "maxLength": 50},
			"capacity":     bson.M{"bsonType": integer, "minimum": 0},
			"location":     bson.M{"bsonType": "string", "maxLength": 200},
			"lock_version": bson.M{"bsonType": integer},
			"created_at":   bson.M{"bsonType": "date"},
		},
	},
}

var LeaseValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "owner", "expires_at"},
		"properties": bson.M{
			"_id":        bson.M{"bsonType": "string"},
			"owner":      bson.M{"bsonType": "string"},
			"expires_at": bson.M{"bsonType": "date"},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}
