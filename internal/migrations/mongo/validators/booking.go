package validators

import "go.mongodb.org/mongo-driver/bson"

var integer = bson.A{"int", "long"}

var BookingValidator = bson.M{
	"$and": bson.A{
		bson.M{"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": []string{
				"_id",
				"resource_id",
				"booked_by",
				"start_time",
				"end_time",
				"status",
				"created_at",
			},
			"additionalProperties": true,

			"properties": bson.M{
				"_id": bson.M{
					"bsonType": integer,
					"minimum":  1,
				},

				"resource_id": bson.M{
					"bsonType": integer,
					"minimum":  1,
				},

				"booked_by": bson.M{
					"bsonType":  "string",
					"minLength": 1,
					"maxLength": 100,
				},

				"start_time": bson.M{
					"bsonType": "date",
				},

				"end_time": bson.M{
					"bsonType": "date",
				},

				"status": bson.M{
					"bsonType": "string",
					"enum": []string{
						"CONFIRMED",
						"CANCELLED",
					},
				},

				"created_at": bson.M{
					"bsonType": "date",
				},
			},
		}},
		bson.M{"$expr": bson.M{"$lt": bson.A{"$start_time", "$end_time"}}},
	},
}
