package implementation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"kb-assistant-be/internal/entity"
	"kb-assistant-be/internal/repository/contract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) contract.KnowledgeRepository {
	t.Helper()
	base := t.TempDir()
	repo, err := NewFileKnowledgeRepository(
		filepath.Join(base, "texts"),
		filepath.Join(base, "images"),
		filepath.Join(base, "files"),
		filepath.Join(base, "materials.json"),
	)
	require.NoError(t, err)
	return repo
}

func TestTopicLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	topics, err := repo.ListTopics(ctx)
	require.NoError(t, err)
	assert.Empty(t, topics)

	require.NoError(t, repo.AddTopic(ctx, "Зарплата"))
	assert.ErrorIs(t, repo.AddTopic(ctx, "Зарплата"), contract.ErrTopicExists)

	ok, err := repo.HasTopic(ctx, "Зарплата")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.HasTopic(ctx, "Отпуска")
	require.NoError(t, err)
	assert.False(t, ok)

	desc, err := repo.TopicDescription(ctx, "Зарплата")
	require.NoError(t, err)
	assert.Equal(t, "# Зарплата\n\nОписание раздела Зарплата.", desc)

	topics, err = repo.ListTopics(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Зарплата"}, topics)
}

func TestSubtopicLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, repo.AddTopic(ctx, "Зарплата"))

	require.NoError(t, repo.AddSubtopic(ctx, "Зарплата", "Расчет Аванса"))

	// Names are stored lowercase with underscores, and the description
	// entry never shows up in listings.
	subtopics, err := repo.ListSubtopics(ctx, "Зарплата")
	require.NoError(t, err)
	assert.Equal(t, []string{"расчет_аванса"}, subtopics)

	assert.ErrorIs(t, repo.AddSubtopic(ctx, "Зарплата", "расчет аванса"), contract.ErrSubtopicExists)

	canonical, found, err := repo.FindSubtopic(ctx, "Зарплата", "Расчет  Аванса")
	require.NoError(t, err)
	assert.False(t, found)
	_ = canonical

	canonical, found, err = repo.FindSubtopic(ctx, "Зарплата", "РАСЧЕТ АВАНСА")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "расчет_аванса", canonical)

	content, err := repo.SubtopicContent(ctx, "Зарплата", "расчет_аванса")
	require.NoError(t, err)
	assert.Equal(t, "# Расчет Аванса\n\nОписание подраздела Расчет Аванса.", content.Text)
	assert.Empty(t, content.Images)
	assert.Empty(t, content.Files)

	_, err = repo.SubtopicContent(ctx, "Зарплата", "missing")
	assert.ErrorIs(t, err, contract.ErrSubtopicNotFound)

	_, err = repo.ListSubtopics(ctx, "Отпуска")
	assert.ErrorIs(t, err, contract.ErrTopicNotFound)
}

func TestMaterialLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, repo.AddTopic(ctx, "Зарплата"))
	require.NoError(t, repo.AddSubtopic(ctx, "Зарплата", "аванс"))

	path, err := repo.SaveUpload(ctx, []byte("png-bytes"), "Зарплата_аванс_deadbeef.jpg", entity.MaterialKindImage)
	require.NoError(t, err)

	key := "Зарплата/аванс"
	id, err := repo.AddMaterial(ctx, key, path, "Схема расчета", entity.MaterialKindImage)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	material, err := repo.GetMaterial(ctx, key, id, entity.MaterialKindImage)
	require.NoError(t, err)
	require.NotNil(t, material)
	assert.Equal(t, "Схема расчета", material.Caption)
	assert.Equal(t, path, material.Path)

	// Wrong kind is a miss, not an error.
	material, err = repo.GetMaterial(ctx, key, id, entity.MaterialKindFile)
	require.NoError(t, err)
	assert.Nil(t, material)

	require.NoError(t, repo.UpdateMaterial(ctx, key, id, "Новая подпись", "", entity.MaterialKindImage))
	material, err = repo.GetMaterial(ctx, key, id, entity.MaterialKindImage)
	require.NoError(t, err)
	assert.Equal(t, "Новая подпись", material.Caption)

	content, err := repo.SubtopicContent(ctx, "Зарплата", "аванс")
	require.NoError(t, err)
	require.Len(t, content.Images, 1)
	assert.Equal(t, id, content.Images[0].Id)

	require.NoError(t, repo.DeleteMaterial(ctx, key, id, entity.MaterialKindImage))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	assert.ErrorIs(t, repo.DeleteMaterial(ctx, key, id, entity.MaterialKindImage), contract.ErrMaterialNotFound)

	materials, err := repo.ListMaterials(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, materials)
}

func TestUpdateMaterialReplacesBackingFile(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, repo.AddTopic(ctx, "Зарплата"))

	oldPath, err := repo.CreateTextFile(ctx, "старый текст", "Зарплата_аванс_11111111.txt")
	require.NoError(t, err)
	newPath, err := repo.CreateTextFile(ctx, "новый текст", "Зарплата_аванс_22222222.txt")
	require.NoError(t, err)

	key := "Зарплата/аванс"
	id, err := repo.AddMaterial(ctx, key, oldPath, "Инструкция", entity.MaterialKindFile)
	require.NoError(t, err)

	require.NoError(t, repo.UpdateMaterial(ctx, key, id, "", newPath, entity.MaterialKindFile))

	_, statErr := os.Stat(oldPath)
	assert.True(t, os.IsNotExist(statErr))

	material, err := repo.GetMaterial(ctx, key, id, entity.MaterialKindFile)
	require.NoError(t, err)
	assert.Equal(t, newPath, material.Path)
	assert.Equal(t, "Инструкция", material.Caption)
}

func TestSearchMatchesLinesCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, repo.AddTopic(ctx, "Зарплата"))
	require.NoError(t, repo.AddSubtopic(ctx, "Зарплата", "аванс"))
	require.NoError(t, repo.AddTopic(ctx, "Отпуска"))
	require.NoError(t, repo.AddSubtopic(ctx, "Отпуска", "график"))

	hits, err := repo.Search(ctx, "АВАНС")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Зарплата", hits[0].Topic)
	assert.Equal(t, "аванс", hits[0].Subtopic)
	assert.Equal(t, []string{"# аванс", "Описание подраздела аванс."}, hits[0].Lines)

	hits, err = repo.Search(ctx, "ничего такого нет")
	require.NoError(t, err)
	assert.Empty(t, hits)
}
