package mongostore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xenking/kitchen-backoffice/internal/docstore"
)

func TestCollectionName(t *testing.T) {
	assert.Equal(t, "orders.241029.orders", CollectionName(docstore.Orders("241029")))
	assert.Equal(t, "coupon", CollectionName(docstore.Coupons))
}

func TestToDocument(t *testing.T) {
	created := time.Date(2024, 10, 29, 9, 0, 0, 0, time.UTC)
	m := bson.M{
		"_id":       "o1",
		"createdAt": primitive.NewDateTimeFromTime(created),
		"total":     int32(9000),
		"isStarted": true,
		"menuList": bson.A{
			bson.M{"menuName": "Bulgogi", "quantity": int32(2), "price": 4500.0},
			bson.D{{Key: "menuName", Value: "Rice"}, {Key: "options", Value: bson.A{"large"}}},
		},
	}

	doc := toDocument(m)
	assert.Equal(t, "o1", doc.ID)
	assert.NotContains(t, doc.Fields, "_id")
	assert.Equal(t, created, doc.Fields["createdAt"])
	assert.Equal(t, int64(9000), doc.Fields["total"])
	assert.Equal(t, true, doc.Fields["isStarted"])
	assert.Equal(t, []any{
		map[string]any{"menuName": "Bulgogi", "quantity": int64(2), "price": 4500.0},
		map[string]any{"menuName": "Rice", "options": []any{"large"}},
	}, doc.Fields["menuList"])
}

func TestToDocument_ObjectID(t *testing.T) {
	oid := primitive.NewObjectID()
	doc := toDocument(bson.M{"_id": oid})
	assert.Equal(t, oid.Hex(), doc.ID)
}

func TestToBSON(t *testing.T) {
	fields := docstore.Fields{"isCompleted": true}
	m := toBSON(fields)
	m["_id"] = "x"
	assert.NotContains(t, fields, "_id", "input must not be modified")
	assert.Equal(t, true, m["isCompleted"])
}
