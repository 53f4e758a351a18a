// Package repositories contains MongoDB repository implementations.
package repositories

import "go.mongodb.org/mongo-driver/v2/bson"

// cmdSet - See https://www.mongodb.com/docs/manual/reference/operator/update/set/
func cmdSet(i any) bson.E {
	return bson.E{
		Key:   "$set",
		Value: i,
	}
}

// cmdInc - See https://www.mongodb.com/docs/manual/reference/operator/update/inc/
func cmdInc(i any) bson.E {
	return bson.E{
		Key:   "$inc",
		Value: i,
	}
}
