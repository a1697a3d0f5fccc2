package common

import (
	"fmt"
	"log"
	"os"

	"github.com/artefactual-labs/scope-services/network"
	"github.com/artefactual-labs/scope-services/util/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/olivere/elastic/v7"
	"github.com/op/go-logging"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Context holds the connections every process needs: the relational
// store, the search index, NSQ, Redis, and the object store with the
// uploaded DIP packages. Storage Service clients are created per host
// from Config.SSHosts; see SSClientFor.
type Context struct {
	Config      *Config
	DB          *gorm.DB
	ESClient    *elastic.Client
	Logger      *logging.Logger
	NSQClient   *network.NSQClient
	RedisClient *network.RedisClient
	S3Client    *minio.Client
}

func NewContext() *Context {
	config := NewConfig()
	_logger := getLogger(config)
	return &Context{
		Config:      config,
		DB:          getDB(config),
		ESClient:    getESClient(config),
		Logger:      _logger,
		NSQClient:   network.NewNSQClient(config.NsqURL),
		RedisClient: getRedisClient(config),
		S3Client:    getS3Client(config),
	}
}

func getLogger(config *Config) *logging.Logger {
	logger, _ := logger.InitLogger(config.LogDir, config.LogLevel)
	return logger
}

func getDB(config *Config) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(config.DatabasePath), &gorm.Config{
		Logger: gormlogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormlogger.Config{LogLevel: gormlogger.Silent},
		),
	})
	if err != nil {
		panic(fmt.Sprintf("Could not open database %s: %v", config.DatabasePath, err))
	}
	return db
}

func getESClient(config *Config) *elastic.Client {
	client, err := elastic.NewClient(
		elastic.SetURL(config.ESURLs...),
		elastic.SetSniff(false),
	)
	if err != nil {
		panic(fmt.Sprintf("Could not initialize Elasticsearch client: %v", err))
	}
	return client
}

func getRedisClient(config *Config) *network.RedisClient {
	return network.NewRedisClient(
		config.RedisURL,
		config.RedisPassword,
		config.RedisDefaultDB)
}

func getS3Client(config *Config) *minio.Client {
	client, err := minio.New(
		config.S3Credentials.Host,
		&minio.Options{
			Creds: credentials.NewStaticV4(
				config.S3Credentials.KeyID,
				config.S3Credentials.SecretKey, ""),
			Secure: config.S3Credentials.UseSSL,
		})
	if err != nil {
		panic(err)
	}
	return client
}

// SSClientFor returns a Storage Service client for the given host URL,
// or an error if no credentials are configured for that host. A host
// with no configured credentials is a configuration error that should
// never be retried.
func (context *Context) SSClientFor(hostURL string) (*network.StorageServiceClient, error) {
	creds, ok := context.Config.SSHosts[hostURL]
	if !ok {
		return nil, fmt.Errorf("Configuration not found for SS host: %s", hostURL)
	}
	return network.NewStorageServiceClient(hostURL, creds.User, creds.Secret, context.Logger), nil
}
