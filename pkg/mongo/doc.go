// Package mongo connects to the MongoDB deployment holding requirement
// rules for mongosource.
//
//	var cfg mongo.Config
//	config.MustLoad(&cfg)
//	client, err := mongo.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Disconnect(context.Background())
//	source := mongosource.New(mongo.Collection(client, cfg))
package mongo
