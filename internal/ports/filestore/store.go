package filestore

import "context"

// FileMeta es lo único que el core conoce de un archivo: el colaborador de
// file storage persiste el binario y entrega esta metadata.
type FileMeta struct {
	Ref         string
	Name        string
	ContentType string
	Size        int64
}

// Store resuelve un token de subida (emitido por el servicio de archivos)
// a la metadata del archivo ya persistido.
type Store interface {
	Describe(ctx context.Context, uploadToken string) (FileMeta, error)
}
