package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"ppda-seguimiento-backend/app/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrArchivoNoEncontrado indica que la clave no apunta a un archivo existente.
var ErrArchivoNoEncontrado = errors.New("archivo no encontrado")

// ArchivoStore guarda los binarios (PDF generados, evidencias). La clave que
// retorna Guardar es lo que se persiste en la base relacional.
type ArchivoStore interface {
	Guardar(ctx context.Context, carpeta, nombre, contentType string, r io.Reader) (string, error)
	Abrir(ctx context.Context, clave string) (io.ReadCloser, error)
	Eliminar(ctx context.Context, clave string) error
}

// =========================
// GridFS (MongoDB)
// =========================

type gridFSStore struct {
	bucket *gridfs.Bucket
}

// NewGridFSStore usa el bucket indicado de la base Mongo. La clave es el ObjectID en hex.
func NewGridFSStore(db *mongo.Database, bucketName string) (ArchivoStore, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(bucketName))
	if err != nil {
		return nil, fmt.Errorf("gridfs bucket: %w", err)
	}
	return &gridFSStore{bucket: bucket}, nil
}

func (s *gridFSStore) Guardar(ctx context.Context, carpeta, nombre, contentType string, r io.Reader) (string, error) {
	opts := options.GridFSUpload().SetMetadata(model.ArchivoMetadata{
		Nombre:      nombre,
		Carpeta:     carpeta,
		ContentType: contentType,
		SubidoEn:    time.Now().UTC(),
	})

	if deadline, ok := ctx.Deadline(); ok {
		if err := s.bucket.SetWriteDeadline(deadline); err != nil {
			return "", err
		}
	}
	oid, err := s.bucket.UploadFromStream(path.Join(carpeta, nombre), r, opts)
	if err != nil {
		return "", fmt.Errorf("gridfs upload: %w", err)
	}
	return oid.Hex(), nil
}

func (s *gridFSStore) Abrir(ctx context.Context, clave string) (io.ReadCloser, error) {
	oid, err := primitive.ObjectIDFromHex(clave)
	if err != nil {
		return nil, ErrArchivoNoEncontrado
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := s.bucket.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
	}
	stream, err := s.bucket.OpenDownloadStream(oid)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, ErrArchivoNoEncontrado
		}
		return nil, fmt.Errorf("gridfs download: %w", err)
	}
	return stream, nil
}

func (s *gridFSStore) Eliminar(ctx context.Context, clave string) error {
	oid, err := primitive.ObjectIDFromHex(clave)
	if err != nil {
		return ErrArchivoNoEncontrado
	}
	if err := s.bucket.DeleteContext(ctx, oid); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return ErrArchivoNoEncontrado
		}
		return fmt.Errorf("gridfs delete: %w", err)
	}
	return nil
}

// =========================
// Disco local
// =========================

type diskStore struct {
	root  string
	ahora func() time.Time
}

// NewDiskStore guarda bajo root/<carpeta>/YYYY/MM/<nombre>. La clave es la ruta
// relativa a root con separadores "/". Si el nombre ya existe en la carpeta del
// mes se agrega un sufijo aleatorio antes de la extensión.
func NewDiskStore(root string) ArchivoStore {
	return &diskStore{root: root, ahora: time.Now}
}

const maxIntentosNombre = 10

func (s *diskStore) Guardar(_ context.Context, carpeta, nombre, _ string, r io.Reader) (string, error) {
	t := s.ahora()
	dir := path.Join(carpeta, t.Format("2006"), t.Format("01"))
	base := path.Base(nombre)

	for intento := 0; intento < maxIntentosNombre; intento++ {
		clave := path.Join(dir, nombreDisponible(base, intento))
		full, err := s.ruta(clave)
		if err != nil {
			return "", err
		}
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return "", fmt.Errorf("crear directorio: %w", err)
		}

		f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("crear archivo: %w", err)
		}
		if _, err := io.Copy(f, r); err != nil {
			f.Close()
			os.Remove(full)
			return "", fmt.Errorf("escribir archivo: %w", err)
		}
		if err := f.Close(); err != nil {
			os.Remove(full)
			return "", err
		}
		return clave, nil
	}
	return "", fmt.Errorf("crear archivo: sin nombre disponible para %q", base)
}

// nombreDisponible deja el nombre tal cual en el primer intento y luego agrega
// "_<8 hex>" antes de la extensión: foto.jpg -> foto_1a2b3c4d.jpg.
func nombreDisponible(base string, intento int) string {
	if intento == 0 {
		return base
	}
	ext := path.Ext(base)
	return strings.TrimSuffix(base, ext) + "_" + uuid.NewString()[:8] + ext
}

func (s *diskStore) Abrir(_ context.Context, clave string) (io.ReadCloser, error) {
	full, err := s.ruta(clave)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrArchivoNoEncontrado
		}
		return nil, err
	}
	return f, nil
}

func (s *diskStore) Eliminar(_ context.Context, clave string) error {
	full, err := s.ruta(clave)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrArchivoNoEncontrado
		}
		return err
	}
	return nil
}

// ruta resuelve la clave dentro de root y rechaza claves que escapen de él.
func (s *diskStore) ruta(clave string) (string, error) {
	limpia := path.Clean("/" + clave)
	if clave == "" || strings.Contains(clave, "..") {
		return "", ErrArchivoNoEncontrado
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(limpia, "/"))), nil
}
