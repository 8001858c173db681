package reports

import (
	"context"
	"mime"
	"net/http"
	"strings"

	"github.com/sri-ravi13/Orphan-Management-System/api/educationalrecords"
	"github.com/sri-ravi13/Orphan-Management-System/api/healthrecords"
	"github.com/sri-ravi13/Orphan-Management-System/api/shared"

	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
)

const (
	FORMAT_JSON = "json"
	FORMAT_XLSX = "xlsx"
)

type ReportRequest struct {
	Format string `validate:"omitempty,oneof=json xlsx" json:"format"`
}

type ChildWelfareTransport struct {
	Id            string                                `json:"id"`
	FirstName     string                                `json:"first_name"`
	LastName      string                                `json:"last_name"`
	DateOfBirth   *string                               `json:"date_of_birth"`
	Age           *int64                                `json:"age"`
	Gender        string                                `json:"gender"`
	AdmissionDate *string                               `json:"admission_date"`
	HealthRecords []healthrecords.HealthRecordTransport `json:"health_records"`
}

// report is what every report endpoint returns: the json payload and the
// same rows laid out as a sheet.
type report struct {
	format string
	json   interface{}
	sheet  sheet
}

type HandlerFactory struct {
	Service Service `inject:""`
}

func (h *HandlerFactory) ChildWelfare(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeChildWelfareEndpoint(h.Service),
		decodeReportRequest,
		encodeReport,
		opts...,
	)
}

func (h *HandlerFactory) EducationalPerformance(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeEducationalPerformanceEndpoint(h.Service),
		decodeReportRequest,
		encodeReport,
		opts...,
	)
}

func (h *HandlerFactory) HealthRecords(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeHealthRecordsEndpoint(h.Service),
		decodeReportRequest,
		encodeReport,
		opts...,
	)
}

func makeChildWelfareEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(ReportRequest)
		children, records, err := svc.ChildWelfare(ctx)
		if err != nil {
			return nil, err
		}
		rows := []ChildWelfareTransport{}
		out := report{
			format: req.Format,
			sheet: sheet{
				name:    "Child Welfare",
				headers: []string{"Last Name", "First Name", "Date of Birth", "Age", "Gender", "Admission Date", "Health Records", "Last Checkup"},
			},
		}
		for _, child := range children {
			row := ChildWelfareTransport{
				Id:            child.ChildId.String,
				FirstName:     child.FirstName.String,
				LastName:      child.LastName.String,
				DateOfBirth:   shared.FormatDate(child.DateOfBirth),
				Gender:        child.Gender.String,
				AdmissionDate: shared.FormatDate(child.AdmissionDate),
				HealthRecords: []healthrecords.HealthRecordTransport{},
			}
			if child.Age.Valid {
				row.Age = &child.Age.Int64
			}
			var lastCheckup *string
			for _, record := range records[child.ChildId.String] {
				transport := healthrecords.StoreToTransport(record, nil)
				row.HealthRecords = append(row.HealthRecords, transport)
				if transport.LastCheckup != nil && (lastCheckup == nil || *transport.LastCheckup > *lastCheckup) {
					lastCheckup = transport.LastCheckup
				}
			}
			rows = append(rows, row)

			var age interface{} = ""
			if row.Age != nil {
				age = *row.Age
			}
			out.sheet.rows = append(out.sheet.rows, []interface{}{
				row.LastName, row.FirstName, dateCell(row.DateOfBirth), age, row.Gender,
				dateCell(row.AdmissionDate), len(row.HealthRecords), dateCell(lastCheckup),
			})
		}
		out.json = rows
		return out, nil
	}
}

func makeEducationalPerformanceEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(ReportRequest)
		records, children, err := svc.EducationalPerformance(ctx)
		if err != nil {
			return nil, err
		}
		rows := []educationalrecords.EducationalRecordTransport{}
		out := report{
			format: req.Format,
			sheet: sheet{
				name:    "Educational Performance",
				headers: []string{"Last Name", "First Name", "School", "Grade", "Class", "Performance", "Attendance", "Extracurricular Activities"},
			},
		}
		for _, record := range records {
			row := educationalrecords.StoreToTransport(record, children)
			rows = append(rows, row)
			first, last := names(row.Child)
			out.sheet.rows = append(out.sheet.rows, []interface{}{
				last, first, row.SchoolName, row.Grade, row.Class, row.Performance, row.Attendance, row.ExtracurricularActivities,
			})
		}
		out.json = rows
		return out, nil
	}
}

func makeHealthRecordsEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(ReportRequest)
		records, children, err := svc.HealthRecords(ctx)
		if err != nil {
			return nil, err
		}
		rows := []healthrecords.HealthRecordTransport{}
		out := report{
			format: req.Format,
			sheet: sheet{
				name:    "Health Records",
				headers: []string{"Last Name", "First Name", "Medical History", "Vaccinations", "Treatments", "Last Checkup", "Next Appointment"},
			},
		}
		for _, record := range records {
			row := healthrecords.StoreToTransport(record, children)
			rows = append(rows, row)
			first, last := names(row.Child)
			out.sheet.rows = append(out.sheet.rows, []interface{}{
				last, first, row.MedicalHistory, row.Vaccinations, row.Treatments, dateCell(row.LastCheckup), dateCell(row.NextAppointment),
			})
		}
		out.json = rows
		return out, nil
	}
}

func names(child *shared.ChildSummary) (string, string) {
	if child == nil {
		return "", ""
	}
	return child.FirstName, child.LastName
}

func decodeReportRequest(_ context.Context, r *http.Request) (interface{}, error) {
	request := ReportRequest{Format: strings.ToLower(r.URL.Query().Get("format"))}
	if err := shared.Validate(request); err != nil {
		return nil, err
	}
	return request, nil
}

func encodeReport(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	out := response.(report)
	if out.format != FORMAT_XLSX {
		return shared.EncodeResponse200(ctx, w, out.json)
	}
	name := strings.ToLower(strings.Replace(out.sheet.name, " ", "-", -1))
	w.Header().Set("Content-Type", XLSX_CONTENT_TYPE)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename(name)}))
	w.WriteHeader(http.StatusOK)
	return out.sheet.write(w)
}

// encode errors from business-logic
func EncodeError(ctx context.Context, err error, w http.ResponseWriter) {
	shared.EncodeError(ctx, err, w)
}
