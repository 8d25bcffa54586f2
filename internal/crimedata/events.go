package crimedata

// TopicUploaded fires after a CSV upload is ingested.
// Payload: UploadResponse (without per-row errors).
const TopicUploaded = "crimedata.uploaded"
