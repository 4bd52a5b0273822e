package internal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pmsync/internal/config"
	"pmsync/models"
)

const (
	collectionLog            = "sys_log"
	collectionBuildings      = "buildings"
	collectionUtilities      = "utilities"
	collectionPortfolioSyncs = "portfolio_syncs"
	collectionSyncJobs       = "sync_jobs"
)

type MongoDB struct {
	ctx           context.Context
	clientOptions *options.ClientOptions
	database      string
	mu            sync.Mutex
	client        *mongo.Client
}

func NewMongoClient(conf *config.Config) (*MongoDB, error) {
	if !conf.Mongo.Enabled {
		return nil, nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	client := &MongoDB{
		ctx:           context.Background(),
		clientOptions: clientOptions,
		database:      conf.Mongo.Database,
	}
	return client, nil
}

// connect returns the shared client, dialing on first use.
func (m *MongoDB) connect() (*mongo.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		return m.client, nil
	}
	connection, err := mongo.Connect(m.ctx, m.clientOptions)
	if err != nil {
		return nil, err
	}
	m.client = connection
	return connection, nil
}

func (m *MongoDB) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		return
	}
	if err := m.client.Disconnect(m.ctx); err != nil {
		log.Println("mongodb disconnect error;", err)
	}
	m.client = nil
}

func (m *MongoDB) collection(name string) (*mongo.Collection, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	return connection.Database(m.database).Collection(name), nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func (m *MongoDB) WriteLogMessage(data Data) error {
	collection, err := m.collection(collectionLog)
	if err != nil {
		return err
	}
	_, err = collection.InsertOne(m.ctx, data)
	return err
}

func (m *MongoDB) ReadLog() ([]FeatureLogMessage, error) {
	collection, err := m.collection(collectionLog)
	if err != nil {
		return nil, err
	}
	var logMessages []FeatureLogMessage
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(1000)
	cursor, err := collection.Find(m.ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	if err = cursor.All(m.ctx, &logMessages); err != nil {
		return nil, err
	}
	return logMessages, nil
}

func (m *MongoDB) GetBuilding(ctx context.Context, id primitive.ObjectID) (*models.Building, error) {
	collection, err := m.collection(collectionBuildings)
	if err != nil {
		return nil, err
	}
	var building models.Building
	if err = collection.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&building); err != nil {
		return nil, notFound(err)
	}
	return &building, nil
}

func (m *MongoDB) GetBuildings(ctx context.Context, orgID string) ([]*models.Building, error) {
	collection, err := m.collection(collectionBuildings)
	if err != nil {
		return nil, err
	}
	var buildings []*models.Building
	cursor, err := collection.Find(ctx, bson.D{{Key: "organization_id", Value: orgID}})
	if err != nil {
		return nil, err
	}
	if err = cursor.All(ctx, &buildings); err != nil {
		return nil, err
	}
	return buildings, nil
}

// FindBuildingByLink returns nil without error when no building is linked to the property.
func (m *MongoDB) FindBuildingByLink(ctx context.Context, accountID, propertyID string) (*models.Building, error) {
	collection, err := m.collection(collectionBuildings)
	if err != nil {
		return nil, err
	}
	filter := bson.D{{Key: "energystar_ids", Value: bson.D{{Key: "$elemMatch", Value: bson.D{
		{Key: "account_id", Value: accountID},
		{Key: "building_id", Value: propertyID},
	}}}}}
	var building models.Building
	err = collection.FindOne(ctx, filter).Decode(&building)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &building, nil
}

func (m *MongoDB) SaveBuilding(ctx context.Context, building *models.Building) error {
	collection, err := m.collection(collectionBuildings)
	if err != nil {
		return err
	}
	if building.ID.IsZero() {
		building.ID = primitive.NewObjectID()
	}
	building.UpdatedAt = time.Now().UTC()
	opts := options.Replace().SetUpsert(true)
	_, err = collection.ReplaceOne(ctx, bson.D{{Key: "_id", Value: building.ID}}, building, opts)
	return err
}

func (m *MongoDB) GetUtility(ctx context.Context, id primitive.ObjectID) (*models.Utility, error) {
	collection, err := m.collection(collectionUtilities)
	if err != nil {
		return nil, err
	}
	var utility models.Utility
	if err = collection.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&utility); err != nil {
		return nil, notFound(err)
	}
	return &utility, nil
}

func (m *MongoDB) GetUtilities(ctx context.Context, ids []primitive.ObjectID) ([]*models.Utility, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	collection, err := m.collection(collectionUtilities)
	if err != nil {
		return nil, err
	}
	var utilities []*models.Utility
	cursor, err := collection.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return nil, err
	}
	if err = cursor.All(ctx, &utilities); err != nil {
		return nil, err
	}
	return utilities, nil
}

func (m *MongoDB) SaveUtility(ctx context.Context, utility *models.Utility) error {
	collection, err := m.collection(collectionUtilities)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if utility.ID.IsZero() {
		utility.ID = primitive.NewObjectID()
		utility.CreatedAt = now
	}
	utility.UpdatedAt = now
	opts := options.Replace().SetUpsert(true)
	_, err = collection.ReplaceOne(ctx, bson.D{{Key: "_id", Value: utility.ID}}, utility, opts)
	return err
}

func (m *MongoDB) DeleteUtility(ctx context.Context, id primitive.ObjectID) error {
	collection, err := m.collection(collectionUtilities)
	if err != nil {
		return err
	}
	_, err = collection.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	return err
}

func (m *MongoDB) GetPortfolioSync(ctx context.Context, accountID string) (*models.PortfolioSync, error) {
	collection, err := m.collection(collectionPortfolioSyncs)
	if err != nil {
		return nil, err
	}
	var portfolioSync models.PortfolioSync
	if err = collection.FindOne(ctx, bson.D{{Key: "account_id", Value: accountID}}).Decode(&portfolioSync); err != nil {
		return nil, notFound(err)
	}
	return &portfolioSync, nil
}

func (m *MongoDB) GetPortfolioSyncs(ctx context.Context, orgID string) ([]*models.PortfolioSync, error) {
	collection, err := m.collection(collectionPortfolioSyncs)
	if err != nil {
		return nil, err
	}
	var syncs []*models.PortfolioSync
	cursor, err := collection.Find(ctx, bson.D{{Key: "orgs_with_access", Value: orgID}})
	if err != nil {
		return nil, err
	}
	if err = cursor.All(ctx, &syncs); err != nil {
		return nil, err
	}
	return syncs, nil
}

func (m *MongoDB) SavePortfolioSync(ctx context.Context, portfolioSync *models.PortfolioSync) error {
	collection, err := m.collection(collectionPortfolioSyncs)
	if err != nil {
		return err
	}
	portfolioSync.UpdatedAt = time.Now().UTC()
	opts := options.Replace().SetUpsert(true)
	_, err = collection.ReplaceOne(ctx, bson.D{{Key: "account_id", Value: portfolioSync.AccountID}}, portfolioSync, opts)
	return err
}

func (m *MongoDB) SaveSyncJob(job *models.SyncJob) error {
	collection, err := m.collection(collectionSyncJobs)
	if err != nil {
		return err
	}
	filter := bson.D{{Key: "org_id", Value: job.OrgID}, {Key: "kind", Value: job.Kind}}
	opts := options.Replace().SetUpsert(true)
	_, err = collection.ReplaceOne(m.ctx, filter, job, opts)
	return err
}

func (m *MongoDB) GetSyncJobs() ([]*models.SyncJob, error) {
	collection, err := m.collection(collectionSyncJobs)
	if err != nil {
		return nil, err
	}
	var jobs []*models.SyncJob
	cursor, err := collection.Find(m.ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	if err = cursor.All(m.ctx, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}
