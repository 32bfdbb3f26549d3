package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hitoshi/taskman/internal/model"
)

// taskCollection はタスクを格納するコレクション名。
const taskCollection = "tasks"

// MongoTaskRepo はMongoDBを使用したタスクリポジトリ。
// TaskQuery仕様をbsonフィルタ・ソート・Skip/Limitに変換することで、
// PostgresTaskRepoと同一の順序・ページネーション契約を提供する。
type MongoTaskRepo struct {
	coll *mongo.Collection
}

// NewMongoTaskRepo はMongoTaskRepoを生成する。
func NewMongoTaskRepo(db *mongo.Database) *MongoTaskRepo {
	return &MongoTaskRepo{coll: db.Collection(taskCollection)}
}

// mongoTask はMongoDBに格納するタスクドキュメント。
type mongoTask struct {
	ID         string     `bson:"_id"`
	UserID     string     `bson:"user_id"`
	Title      string     `bson:"title"`
	Category   *string    `bson:"category"`
	Deadline   *time.Time `bson:"deadline"`
	IsComplete bool       `bson:"is_complete"`
	CreatedAt  time.Time  `bson:"created_at"`
	UpdatedAt  time.Time  `bson:"updated_at"`
}

func (d *mongoTask) toModel() *model.Task {
	return &model.Task{
		ID:         d.ID,
		UserID:     d.UserID,
		Title:      d.Title,
		Category:   d.Category,
		Deadline:   d.Deadline,
		IsComplete: d.IsComplete,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

// Insert はタスクを作成し、ID・タイムスタンプを割り当てた行を返す。
// MongoDBにはカラムデフォルトがないため、タイムスタンプはリポジトリ側で刻む。
func (r *MongoTaskRepo) Insert(ctx context.Context, task *model.Task) (*model.Task, error) {
	now := time.Now().UTC()
	doc := &mongoTask{
		ID:         uuid.New().String(),
		UserID:     task.UserID,
		Title:      task.Title,
		Category:   task.Category,
		Deadline:   task.Deadline,
		IsComplete: task.IsComplete,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}

	return doc.toModel(), nil
}

// List はクエリ仕様に従いタスク一覧を返す。
func (r *MongoTaskRepo) List(ctx context.Context, q TaskQuery) ([]*model.Task, error) {
	cursor, err := r.coll.Find(ctx, buildListFilter(q), buildListOptions(q))
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer cursor.Close(ctx)

	tasks := []*model.Task{}
	for cursor.Next(ctx) {
		var doc mongoTask
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode task: %w", err)
		}
		tasks = append(tasks, doc.toModel())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, nil
}

// UpdateOwned はid・所有者の両方が一致するドキュメントのみを部分更新し、更新後の値を返す。
// 一致するドキュメントがない場合は(nil, nil)を返す。
func (r *MongoTaskRepo) UpdateOwned(ctx context.Context, ownerID, taskID string, changes TaskChanges) (*model.Task, error) {
	filter := bson.D{{Key: "_id", Value: taskID}, {Key: "user_id", Value: ownerID}}
	update := bson.M{
		"$set": buildSetDocument(changes),
		"$currentDate": bson.M{"updated_at": true},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc mongoTask
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return doc.toModel(), nil
}

// DeleteOwned はid・所有者の両方が一致するドキュメントを削除する。一致0件でも成功とする。
func (r *MongoTaskRepo) DeleteOwned(ctx context.Context, ownerID, taskID string) error {
	filter := bson.D{{Key: "_id", Value: taskID}, {Key: "user_id", Value: ownerID}}
	if _, err := r.coll.DeleteOne(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// buildListFilter はTaskQueryからbsonフィルタを構築する。
// 先頭は常にuser_id。deadlineの範囲条件はSQL側と同様にNULL deadlineを除外する。
func buildListFilter(q TaskQuery) bson.D {
	filter := bson.D{{Key: "user_id", Value: q.OwnerID}}

	if q.IsComplete != nil {
		filter = append(filter, bson.E{Key: "is_complete", Value: *q.IsComplete})
	}
	if q.Category != "" {
		filter = append(filter, bson.E{Key: "category", Value: q.Category})
	}

	deadline := bson.D{}
	if q.DeadlineBefore != nil {
		deadline = append(deadline, bson.E{Key: "$lte", Value: *q.DeadlineBefore})
	}
	if q.DeadlineAfter != nil {
		deadline = append(deadline, bson.E{Key: "$gte", Value: *q.DeadlineAfter})
	}
	if len(deadline) > 0 {
		filter = append(filter, bson.E{Key: "deadline", Value: deadline})
	}

	return filter
}

// buildListOptions はTaskQueryからソートとページネーションのFindOptionsを構築する。
// BSONの昇順ソートはnullをdateより前に置くため、NULLS FIRST相当になる。
func buildListOptions(q TaskQuery) *options.FindOptions {
	opts := options.Find().
		SetSort(bson.D{{Key: "deadline", Value: 1}, {Key: "created_at", Value: -1}}).
		SetLimit(int64(q.Limit))

	if q.Offset > 0 {
		opts = opts.SetSkip(int64(q.Offset))
	}

	return opts
}

// buildSetDocument はTaskChangesから$setドキュメントを構築する。
// nilのCategory/Deadlineはnullとして格納される（クリア）。
func buildSetDocument(changes TaskChanges) bson.M {
	set := bson.M{}
	if changes.SetTitle {
		set["title"] = changes.Title
	}
	if changes.SetCategory {
		set["category"] = changes.Category
	}
	if changes.SetDeadline {
		set["deadline"] = changes.Deadline
	}
	if changes.SetIsComplete {
		set["is_complete"] = changes.IsComplete
	}
	return set
}

// compile-time interface check
var _ TaskRepository = (*MongoTaskRepo)(nil)
