package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/langufy-api/pkg/errors"
)

func TestWordTransferImportCSV(t *testing.T) {
	dict := newFakeDictionary()
	food := dict.addCategory("Food")
	svc := NewWordTransferService(wordStore{dict}, dict, nil, nil, zap.NewNop())

	upload := "English,Uzbek,Definition\nbread,non,baked dough\n,,\nwater,,\napple,olma,\n"
	result, err := svc.Import(context.Background(), food.ID, "words.csv", strings.NewReader(upload))
	require.NoError(t, err)

	assert.Equal(t, food.ID, result.CategoryID)
	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 4, result.Errors[0].Line)
	assert.Contains(t, result.Errors[0].Message, "uzbek")

	words, _ := wordStore{dict}.ListByCategory(context.Background(), food.ID)
	require.Len(t, words, 2)
	require.NotNil(t, words[0].Definition)
	assert.Equal(t, "baked dough", *words[0].Definition)
	assert.Nil(t, words[1].Definition)
}

func TestWordTransferImportXLSX(t *testing.T) {
	dict := newFakeDictionary()
	food := dict.addCategory("Food")
	svc := NewWordTransferService(wordStore{dict}, dict, nil, nil, zap.NewNop())

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"English", "Uzbek", "Definition"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"milk", "sut", "white drink"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	result, err := svc.Import(context.Background(), food.ID, "Words.XLSX", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Empty(t, result.Errors)
}

func TestWordTransferImportRejections(t *testing.T) {
	dict := newFakeDictionary()
	food := dict.addCategory("Food")
	svc := NewWordTransferService(wordStore{dict}, dict, nil, nil, zap.NewNop())

	_, err := svc.Import(context.Background(), "missing", "words.csv", strings.NewReader("English,Uzbek\n"))
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Import(context.Background(), food.ID, "words.txt", strings.NewReader("x"))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Import(context.Background(), food.ID, "words.xlsx", strings.NewReader("not a zip"))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	dict.batchErr = errors.New("db down")
	_, err = svc.Import(context.Background(), food.ID, "words.csv", strings.NewReader("English,Uzbek\nbread,non\n"))
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}

func TestWordTransferExport(t *testing.T) {
	dict := newFakeDictionary()
	food := dict.addCategory("Food Words")
	dict.addWord("bread", "non", food)
	svc := NewWordTransferService(wordStore{dict}, dict, nil, nil, zap.NewNop())

	doc, err := svc.Export(context.Background(), food.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", doc.ContentType)
	assert.True(t, strings.HasSuffix(doc.Filename, ".csv"))
	assert.Equal(t, "English,Uzbek,Definition\nbread,non,\n", string(doc.Payload))

	pdf, err := svc.Export(context.Background(), food.ID, "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdf.ContentType)
	assert.True(t, bytes.HasPrefix(pdf.Payload, []byte("%PDF")))

	_, err = svc.Export(context.Background(), food.ID, "docx")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Export(context.Background(), "missing", "csv")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
